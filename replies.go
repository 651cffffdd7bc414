package filexfer

// statusReply builds a 1-byte reply carrying only a status code.
func statusReply(code StatusCode) []byte {
	return []byte{byte(code)}
}

// guardReply converts a session-guard failure (always a *statusError) into
// its 1-byte reply.
func guardReply(err error) []byte {
	return []byte{byte(statusCodeOf(err, StatusCannotOpenFile))}
}
