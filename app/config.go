package app

import (
	"time"

	"github.com/mothmailer/mothmailer/httpclient"
	"github.com/mothmailer/mothmailer/inat"
	"github.com/mothmailer/mothmailer/selector"
	"github.com/mothmailer/mothmailer/store/backend"
	"github.com/mothmailer/mothmailer/store/gcsdoc"
	"github.com/mothmailer/mothmailer/store/jsonbin"
	"github.com/mothmailer/mothmailer/store/s3doc"
)

// StoreConfig selects and configures the document backend.
type StoreConfig struct {
	Driver   string `name:"store" default:"jsonbin" enum:"jsonbin,file,s3,gcs,sqlite,memory" env:"MOTHMAILER_STORE_DRIVER" help:"Document backend (${enum})"`
	Path     string `name:"store-path" default:"sent.json" env:"MOTHMAILER_STORE_PATH" help:"File for the file and sqlite backends"`
	Document string `name:"store-document" default:"sent" env:"MOTHMAILER_STORE_DOCUMENT" help:"Document name in the sqlite database"`

	JSONBin struct {
		BaseURL   string `name:"base-url" default:"${jsonbin_url}" env:"JSONBIN_BASE_URL" help:"JSONBin API endpoint"`
		BinID     string `name:"bin-id" env:"JSONBIN_BIN_ID" help:"Bin holding the sent records"`
		MasterKey string `name:"master-key" env:"JSONBIN_MASTER_KEY" help:"JSONBin master key"`
		AccessKey string `name:"access-key" env:"JSONBIN_ACCESS_KEY" help:"JSONBin access key, used instead of the master key"`
	} `embed:"" prefix:"jsonbin-"`

	S3 struct {
		Bucket          string `env:"MOTHMAILER_S3_BUCKET" help:"S3 bucket"`
		Key             string `default:"${object_name}" env:"MOTHMAILER_S3_KEY" help:"S3 object key"`
		Region          string `env:"AWS_REGION" help:"S3 region"`
		Endpoint        string `env:"MOTHMAILER_S3_ENDPOINT" help:"Custom endpoint, for MinIO and other S3 compatible stores"`
		PathStyle       bool   `env:"MOTHMAILER_S3_PATH_STYLE" help:"Use path style bucket addressing"`
		AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" help:"Static access key id; default is the AWS credential chain"`
		SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" help:"Static secret access key"`
	} `embed:"" prefix:"s3-"`

	GCS struct {
		Bucket          string `env:"MOTHMAILER_GCS_BUCKET" help:"Cloud Storage bucket"`
		Object          string `default:"${object_name}" env:"MOTHMAILER_GCS_OBJECT" help:"Cloud Storage object"`
		CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS" help:"Service account key file"`
	} `embed:"" prefix:"gcs-"`

	HTTPTimeout time.Duration `name:"http-timeout" default:"60s" env:"MOTHMAILER_HTTP_TIMEOUT" help:"Timeout for remote API requests"`
}

func (c StoreConfig) backendConfig() backend.Config {
	return backend.Config{
		Driver:   backend.Driver(c.Driver),
		Path:     c.Path,
		Document: c.Document,
		JSONBin: jsonbin.Config{
			BaseURL:    c.JSONBin.BaseURL,
			BinID:      c.JSONBin.BinID,
			MasterKey:  c.JSONBin.MasterKey,
			AccessKey:  c.JSONBin.AccessKey,
			HTTPClient: httpclient.New(c.HTTPTimeout),
		},
		S3: s3doc.Config{
			Bucket:          c.S3.Bucket,
			Key:             c.S3.Key,
			Region:          c.S3.Region,
			Endpoint:        c.S3.Endpoint,
			PathStyle:       c.S3.PathStyle,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
		},
		GCS: gcsdoc.Config{
			Bucket:          c.GCS.Bucket,
			Object:          c.GCS.Object,
			CredentialsFile: c.GCS.CredentialsFile,
		},
	}
}

// SourceConfig is the iNaturalist search filter.
type SourceConfig struct {
	BaseURL        string        `name:"inat-url" default:"${inat_url}" env:"INAT_BASE_URL" help:"iNaturalist API endpoint"`
	TaxonID        int64         `name:"taxon-id" default:"${taxon_id}" env:"MOTHMAILER_TAXON_ID" help:"Taxon to sample from"`
	WithoutTaxonID int64         `name:"without-taxon-id" default:"${without_taxon_id}" env:"MOTHMAILER_WITHOUT_TAXON_ID" help:"Taxon to exclude (0 for none)"`
	MaxExcludeIDs  int           `name:"max-exclude-ids" default:"${max_exclude_ids}" help:"Known ids sent to the API to exclude (-1 to send none)"`
	Timeout        time.Duration `name:"inat-timeout" default:"60s" env:"INAT_TIMEOUT" help:"Timeout for iNaturalist requests"`
}

func (c SourceConfig) inatConfig() inat.Config {
	return inat.Config{
		BaseURL:        c.BaseURL,
		TaxonID:        c.TaxonID,
		WithoutTaxonID: c.WithoutTaxonID,
		MaxExcludeIDs:  c.MaxExcludeIDs,
		HTTPClient:     httpclient.New(c.Timeout),
	}
}

// SelectConfig tunes the selection loop.
type SelectConfig struct {
	MaxAttempts      int `name:"max-attempts" default:"${max_attempts}" env:"MOTHMAILER_MAX_ATTEMPTS" help:"Pages to sample before giving up"`
	MinFavoriteCount int `name:"min-favorites" default:"0" env:"MOTHMAILER_MIN_FAVORITES" help:"Ask the API for popular observations when above zero"`
}

func (c SelectConfig) selectorConfig() selector.Config {
	return selector.Config{
		MaxAttempts:      c.MaxAttempts,
		MinFavoriteCount: c.MinFavoriteCount,
	}
}
