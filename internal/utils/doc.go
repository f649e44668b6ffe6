// Package utils hosts shared infrastructure helpers: the zap logger factory
// and the Viper-backed configuration loader.
package utils
