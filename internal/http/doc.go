// Package http provides HTTP handlers and middleware for the lesson calendar.
//
// The router exposes the following endpoints:
//   - GET /healthz: liveness probe.
//   - GET /calendar: every session merged with its registrations.
//   - GET /calendar/month?year=&month=: the merged view for one month, defaulting
//     to the current one. Registrant emails are never included in either view.
//   - POST /registrations: body {"targetId","name","email","color"}; responds 201
//     with {"registration"}. The registrant details are remembered for the device
//     identified by the `calendar_client` cookie.
//   - DELETE /registrations/{id}?email=: cancels when the email matches the stored
//     one. Without ?email= the remembered identity is used.
//   - GET /identity, DELETE /identity: read or forget the remembered identity.
//   - POST /admin/login: body {"password"}; responds {"token","expiresAt"}.
//
// The following require an `Authorization: Bearer <token>` admin token:
//   - GET /admin/sessions, PUT /admin/sessions (replace all), POST /admin/sessions,
//     PUT /admin/sessions/{id}, DELETE /admin/sessions/{id}.
//   - POST /admin/sessions/series: body {"template","endsOn","intervalWeeks","weekdays"}.
//   - PUT /admin/password: body {"newPassword","confirmation"}.
//   - POST /admin/maintenance/prune, /admin/maintenance/expire (optional body
//     {"before":"YYYY-MM-DD"}), /admin/maintenance/migrate-ids.
//
// Errors use {"error","message","fields"}; messages follow Accept-Language
// (en, ja, zh).
package http
