package db

// EnsureKeyspace creates the chat keyspace. It must run against a
// session connected to the system keyspace.
func EnsureKeyspace(sys *Session, keyspace string) error {
	return sys.Query(`CREATE KEYSPACE IF NOT EXISTS ` + keyspace +
		` WITH REPLICATION = { 'class' : 'SimpleStrategy', 'replication_factor' : 1 }`).Exec()
}

// EnsureSchema creates every table the services read and write. The
// messages table clusters each channel partition newest-first on
// (created_at, id) so cursor pagination is a single range read.
func EnsureSchema(session *Session) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id uuid PRIMARY KEY,
			username text,
			email text,
			profile_id uuid,
			created_at timestamp,
			updated_at timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS users_by_username (
			username text PRIMARY KEY,
			user_id uuid
		)`,
		`CREATE TABLE IF NOT EXISTS users_by_email (
			email text PRIMARY KEY,
			user_id uuid
		)`,
		`CREATE TABLE IF NOT EXISTS channels (
			id uuid PRIMARY KEY,
			kind text,
			name text,
			description text,
			created_at timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			channel_id uuid,
			created_at timestamp,
			id bigint,
			author_id uuid,
			content text,
			updated_at timestamp,
			attachment_ids list<uuid>,
			PRIMARY KEY ((channel_id), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id DESC)`,
		`CREATE TABLE IF NOT EXISTS messages_by_id (
			id bigint PRIMARY KEY,
			channel_id uuid,
			created_at timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS read_positions (
			user_id uuid,
			channel_id uuid,
			last_read_at timestamp,
			created_at timestamp,
			PRIMARY KEY ((user_id), channel_id)
		)`,
		`CREATE TABLE IF NOT EXISTS read_positions_by_channel (
			channel_id uuid,
			user_id uuid,
			last_read_at timestamp,
			created_at timestamp,
			PRIMARY KEY ((channel_id), user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS attachments (
			id uuid PRIMARY KEY,
			file_name text,
			size bigint,
			content_type text,
			created_at timestamp
		)`,
	}
	for _, stmt := range stmts {
		if err := session.Query(stmt).Exec(); err != nil {
			return err
		}
	}
	return nil
}
