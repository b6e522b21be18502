// Package http implements the HTTP handlers of the operations dashboard API.
// It is a thin layer between the chi router and the services package: it
// parses and validates requests, resolves the browser session, calls a
// service and renders the result.
//
// # Architecture Principles
//
// Handlers in this package follow these principles:
//
//	1. Thin handlers - minimal logic, delegate to services
//	2. HTTP-only concerns - request parsing, response formatting
//	3. Error transformation - convert service errors to RFC 7807 problems
//	4. Consistent envelopes - {"status": "success", "data": ...}
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → SessionCtx → Handler → DashboardService
//	                                                         ↓
//	HTTP Response ← Handler ← Service Response ←─────────────┘
//
// # Sessions
//
// Every API request runs inside a session identified by the opsdash_session
// cookie. A missing or malformed cookie is replaced by a fresh UUID.
//
// # Error Handling
//
// Errors are RFC 7807 Problem Details documents:
//
//	{
//	    "type": "/errors/data/format",
//	    "title": "Invalid Data Format",
//	    "status": 422,
//	    "detail": "data format error: column \"Tasks_Assigned\" at line 3: value cannot be parsed (value \"ten\")",
//	    "instance": "/api/dataset",
//	    "column": "Tasks_Assigned",
//	    "line": 3
//	}
//
// A dashboard request without any dataset is not an error; it answers 200
// with {"status": "awaiting_input"}.
//
// # Testing
//
// Handlers are tested using httptest against a testify mock of the
// dashboard service.
package http
