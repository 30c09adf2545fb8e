package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads and decodes JSON from a request body.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// guildID parses the {guildId} path segment.
func guildID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("guildId"), 10, 64)
	return id, err == nil && id > 0
}

// callerIdentity reads the acting character and GM flag from the request
// headers. The engine trusts its caller; authentication lives upstream.
func callerIdentity(r *http.Request) (characterID string, gm bool) {
	return r.Header.Get("X-Character-ID"), r.Header.Get("X-Game-Master") == "true"
}
