// SPDX-License-Identifier: BSD-3-Clause

// Package config reads the application's configuration directory:
// per-driver JSON files under drivers/, the layout document in
// layout.json, the front-end variants in frontend.json, module
// directories under modules/, and the logging configuration in
// config.yaml. Missing files are created with defaults on first run;
// malformed ones are fatal at startup.
package config
