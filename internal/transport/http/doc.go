// Package http exposes the ranking workflow over HTTP: session lifecycle,
// roster and result-document uploads, weight entry, ranking computation
// and export downloads. Handlers translate domain errors into structured
// API errors; all workflow state lives in the session store.
package http
