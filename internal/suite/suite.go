// SPDX-License-Identifier: MPL-2.0

// Package suite invokes the external test harness (tests/all.sh) for a
// single named suite, with environment overrides layered over harness
// defaults.
package suite

import (
	"errors"
	"fmt"
)

// ErrUnknownSuite is the sentinel error wrapped by UnknownSuiteError.
var ErrUnknownSuite = errors.New("unknown test suite")

// Suite names one harness test suite.
type Suite string

// The fixed set of suites the harness knows about.
const (
	Cipher    Suite = "cipher"
	Lowhash   Suite = "lowhash"
	Chains    Suite = "chains"
	Cert      Suite = "cert"
	DBTests   Suite = "dbtests"
	Tools     Suite = "tools"
	FIPS      Suite = "fips"
	SDR       Suite = "sdr"
	CRMF      Suite = "crmf"
	SMIME     Suite = "smime"
	SSL       Suite = "ssl"
	SSLGtests Suite = "ssl_gtests"
	Bogo      Suite = "bogo"
	EC        Suite = "ec"
	Gtests    Suite = "gtests"
	Merge     Suite = "merge"
	PKITS     Suite = "pkits"
	Policy    Suite = "policy"
)

// All returns every known suite in harness order.
func All() []Suite {
	return []Suite{
		Cipher, Lowhash, Chains, Cert, DBTests, Tools, FIPS, SDR, CRMF,
		SMIME, SSL, SSLGtests, Bogo, EC, Gtests, Merge, PKITS, Policy,
	}
}

// Names returns every known suite name as plain strings, for CLI validation.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = string(s)
	}
	return names
}

// UnknownSuiteError is returned when a name does not match any suite.
type UnknownSuiteError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownSuiteError) Error() string {
	return fmt.Sprintf("unknown test suite %q", e.Name)
}

// Unwrap returns ErrUnknownSuite for errors.Is() compatibility.
func (e *UnknownSuiteError) Unwrap() error { return ErrUnknownSuite }

// Parse validates name against the fixed suite set.
func Parse(name string) (Suite, error) {
	for _, s := range All() {
		if string(s) == name {
			return s, nil
		}
	}
	return "", &UnknownSuiteError{Name: name}
}
