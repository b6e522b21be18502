// Package exporter serializes datasets for download: a three-sheet .xlsx
// workbook and a flat CSV file. Both carry the raw rows in the dataset's
// column order so that loading the output again reproduces the dataset.
package exporter
