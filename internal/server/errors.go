// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import "errors"

// errNoServersAreCreated is returned by NewServer when the handler aggregate
// carries neither an HTTP nor a gRPC handler, so there is nothing to run.
var errNoServersAreCreated = errors.New("no servers are created")
