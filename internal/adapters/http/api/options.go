package api

// defaultMaxUploadBytes caps snapshot uploads when no limit is configured.
const defaultMaxUploadBytes int64 = 32 << 20

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxUploadBytes caps the size of POST /snapshots bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}
