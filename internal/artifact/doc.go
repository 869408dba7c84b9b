// Package artifact moves distribution installers onto the machine under test.
//
// A YAML manifest published next to the installers lists base64 SHA-512
// checksums and the installer files of every provider. Fetcher downloads
// the files of one provider concurrently and applies them into a staging
// directory with checksum verification; Build produces the manifest from a
// directory of installers.
package artifact
