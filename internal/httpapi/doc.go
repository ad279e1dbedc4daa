// Package httpapi exposes screen recognition over HTTP with gin.
//
// Routes:
//   - POST /api/1/get_screen_data: recognize the multipart file "screen"
//   - GET  /api/1/ping: liveness and template count
//   - GET  /api/1/templates: loaded templates in match order
//   - POST /api/1/templates/reload: reload templates from disk
//
// An unrecognized screen is answered with 200 and success=false. Template
// configuration errors are answered with 500.
package httpapi
