// Package textutil provides filename sanitization and display-name helpers
// for uploaded videos and the download names derived from them.
package textutil
