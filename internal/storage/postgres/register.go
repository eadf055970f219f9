package postgres

import "icsv/internal/storage"

func init() {
	storage.Register("postgres", New)
}
