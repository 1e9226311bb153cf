package database

func (s *sqliteDB) GetServer(serverID int64) (*Server, error) {
	server := &Server{}
	err := s.db.QueryRow(
		"SELECT id, name, authenticated, banned, created_at, updated_at FROM servers WHERE id = ?",
		serverID,
	).Scan(
		&server.ID,
		&server.Name,
		&server.Authenticated,
		&server.Banned,
		&server.CreatedAt,
		&server.UpdatedAt,
	)
	if err != nil {
		return server, err
	}

	return server, nil
}

func (s *sqliteDB) SaveServer(server Server) error {
	_, err := s.db.Exec(`
		INSERT INTO servers (id, name, authenticated, banned)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			updated_at = CURRENT_TIMESTAMP
	`, server.ID, server.Name, server.Authenticated, server.Banned)
	return err
}

func (s *sqliteDB) SetServerAuthenticated(serverID int64, authenticated bool) error {
	_, err := s.db.Exec(
		"UPDATE servers SET authenticated = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		authenticated, serverID,
	)
	return err
}

func (s *sqliteDB) SetServerBanned(serverID int64, banned bool) error {
	_, err := s.db.Exec(
		"UPDATE servers SET banned = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		banned, serverID,
	)
	return err
}
