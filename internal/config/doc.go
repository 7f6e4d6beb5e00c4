// Package config provides configuration structures and utilities for yowrangle.
// It defines the main configuration options for loading datasets, quality
// checking, wrangling operations, and report generation preferences.
package config
