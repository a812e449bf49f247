// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package config

import (
	"fmt"
	"net/url"
)

// validateSchemeURL checks that rawURL parses, has a host, and uses one of schemes.
func validateSchemeURL(rawURL, fieldName string, schemes ...string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	ok := false
	for _, s := range schemes {
		if parsed.Scheme == s {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%s scheme must be one of %v, got: %q", fieldName, schemes, parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	return nil
}

// validateHTTPBaseURL additionally rejects query strings, since paths are
// appended to it.
func validateHTTPBaseURL(rawURL, fieldName string) error {
	if err := validateSchemeURL(rawURL, fieldName, "http", "https"); err != nil {
		return err
	}
	parsed, _ := url.Parse(rawURL)
	if parsed.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsed.RawQuery)
	}
	return nil
}
