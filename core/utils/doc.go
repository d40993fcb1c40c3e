// Package utils provides common helpers for the asset pipeline.
// It includes resource id conversion and separator normalization for paths
// and object keys, logic shared by export, upload and reconciliation.
package utils
