// Package http provides HTTP handlers and middleware for the roster API.
//
// The router exposes the following endpoints under /api:
//   - GET /api: health check.
//   - POST /api/auth/login: issues a signed token. Body: {"name","password"}.
//     Response: {"token","expires_at","user"} with the token also set in the
//     `session_token` cookie. POST /api/auth/logout clears the cookie.
//   - GET /api/users, POST /api/users, GET/PUT/DELETE /api/users/{id}: member
//     management exchanging the `userDTO` payload defined in user_handler.go.
//   - GET /api/sessions, POST /api/sessions, POST /api/sessions/series,
//     GET/PUT/DELETE /api/sessions/{id}: mowing sessions exchanging the
//     `sessionDTO` payload defined in session_handler.go. PUT on a session
//     assigns or clears its mower.
//   - PUT /api/sessions/{id}/confirm, PUT /api/sessions/{id}/withdraw and
//     POST /api/sessions/{id}/request-coverage: the assignee workflow.
//   - GET /api/roster: the caller's upcoming sessions.
//   - GET /api/calendar, GET /api/calendar/match, GET /api/overlaps: calendar
//     views defined in calendar_handler.go.
//
// Everything outside /api is served by the optional static handler.
// Request and response DTOs live next to their handlers. Every /api response,
// including errors, is JSON; errors use errorResponse from responder.go.
package http
