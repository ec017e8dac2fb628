// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

/*
Package models defines the HTTP data transfer objects for Inkpost.

Every endpoint answers with an APIResponse envelope. Data holds one of the
response types in this package, and Error holds an APIError with a
machine-readable code.

Domain types live with the code that owns them: recommend.Post for posts
flowing through the engine, and model.Bundle for the vector model. The api
package maps those onto the views defined here.
*/
package models
