// Package serializer renders harness reports in yaml, json, or table
// form. The table form flattens nested values into FIELD/VALUE rows for
// terminal reading; yaml and json are for files and pipelines.
package serializer
