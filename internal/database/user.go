package database

func (s *sqliteDB) GetUser(userID int64) (*User, error) {
	user := &User{}
	err := s.db.QueryRow(
		"SELECT id, username, banned, created_at, updated_at FROM users WHERE id = ?",
		userID,
	).Scan(
		&user.ID,
		&user.Username,
		&user.Banned,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return user, err
	}

	return user, nil
}

func (s *sqliteDB) SaveUser(user User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (id, username)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			updated_at = CURRENT_TIMESTAMP
	`, user.ID, user.Username)
	return err
}

func (s *sqliteDB) SetUserBanned(userID int64, banned bool) error {
	_, err := s.db.Exec(
		"UPDATE users SET banned = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		banned, userID,
	)
	return err
}
