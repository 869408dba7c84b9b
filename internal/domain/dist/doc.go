// Package dist contains the domain rules of a distribution check.
//
// It knows how the tool under test prints its version banner, how
// distributions are named on the command line for a given tool release,
// and records every verification step in a Report.
package dist
