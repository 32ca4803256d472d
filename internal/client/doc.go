// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the client application runtime.
//
// It wires client services and background synchronization into a single
// process lifecycle with signal-driven shutdown.
package client
