// Package inat is the candidate source: it draws random pages of
// research-grade, photographed observations from the iNaturalist API
// and decodes them into records.
//
// Every call to Sample is an independent random draw; two calls with
// the same parameters are not expected to return the same page.
//
// The family lookup walks a taxon's ancestor chain. It is only used to
// decorate the picked record, never to choose it.
package inat
