// Package store keeps the log of records that have already been sent.
//
// The log is a single JSON document behind a Document backend that
// only supports whole-document read and whole-document replace. The
// schema evolved over time; readers accept a bare list of ids, a list
// of full records, or a wrapper object holding either, and decode them
// into one canonical []Entry.
//
// Append is read-modify-write without any lock or transaction. Two
// runs appending at the same time silently lose one of the records,
// and the ordinal (store size + 1 at read time) can repeat. Runs must
// be serialized by whatever schedules them.
package store
