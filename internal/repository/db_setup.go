package repository

import (
	"database/sql"
	"fmt"
	"log"
)

func CreateTableIfNotExists(db *sql.DB) {
	query := `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    username VARCHAR(120) NOT NULL UNIQUE,
    name VARCHAR(200) NOT NULL,
    email VARCHAR(150) NOT NULL UNIQUE,
    password VARCHAR(300) NOT NULL,
    reset_token VARCHAR(200),
    reset_token_expiry TIMESTAMP,
    date_created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
    id SERIAL PRIMARY KEY,
    user_id INT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    title VARCHAR(200) NOT NULL,
    due_date VARCHAR(100),
    priority VARCHAR(10) NOT NULL DEFAULT 'Mid',
    done BOOLEAN NOT NULL DEFAULT FALSE,
    date_added TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS collab_lists (
    id SERIAL PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    owner_id INT NOT NULL REFERENCES users (id),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS collab_members (
    id SERIAL PRIMARY KEY,
    list_id INT NOT NULL REFERENCES collab_lists (id),
    user_id INT NOT NULL REFERENCES users (id),
    UNIQUE (list_id, user_id)
);

CREATE TABLE IF NOT EXISTS collab_tasks (
    id SERIAL PRIMARY KEY,
    list_id INT NOT NULL REFERENCES collab_lists (id),
    title VARCHAR(200) NOT NULL,
    due_date VARCHAR(100),
    priority VARCHAR(10) NOT NULL DEFAULT 'Mid',
    done BOOLEAN NOT NULL DEFAULT FALSE,
    date_added TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
    `

	_, err := db.Exec(query)
	if err != nil {
		log.Fatalf("Error creating table: %v", err)
	} else {
		fmt.Println("Tables 'users', 'tasks', 'collab_lists', 'collab_members', 'collab_tasks' are ready.")
	}
}

func DeleteAllTable(db *sql.DB) {
	query := `
    DROP TABLE IF EXISTS collab_tasks;
    DROP TABLE IF EXISTS collab_members;
    DROP TABLE IF EXISTS collab_lists;
    DROP TABLE IF EXISTS tasks;
    DROP TABLE IF EXISTS users;
    `

	_, err := db.Exec(query)
	if err != nil {
		log.Fatalf("Error deleting table: %v", err)
	} else {
		fmt.Println("All tables are deleted.")
	}
}
