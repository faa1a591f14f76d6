package db

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfhub/internal/domain/auth"
	"perfhub/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureAdminUser(ctx, pool, cfg.SeedAdminUsername, cfg.SeedAdminPassword); err != nil {
		return err
	}
	if !cfg.SeedSampleData {
		return nil
	}
	if err := ensureDirectory(ctx, pool); err != nil {
		return err
	}
	return ensureQuestions(ctx, pool)
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil
	}

	var existing int64
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE username = $1 AND status <> 'deleted'", username).Scan(&existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (username, password_hash, email, role, status)
    VALUES ($1, $2, $3, $4, 'active')
  `, username, hash, username+"@example.com", auth.RoleAdmin)
	if err == nil {
		slog.Info("seeded admin user", "username", username)
	}
	return err
}

type seedPosition struct {
	name             string
	level            int
	responsibilities []string
}

var seedDepartments = []struct {
	name      string
	positions []seedPosition
}{
	{name: "Engineering", positions: []seedPosition{
		{name: "Backend Engineer", level: 3, responsibilities: []string{"Design and maintain service APIs", "Keep production incidents under SLA"}},
		{name: "Frontend Engineer", level: 3, responsibilities: []string{"Ship accessible UI features", "Maintain component library"}},
	}},
	{name: "Product", positions: []seedPosition{
		{name: "Product Manager", level: 4, responsibilities: []string{"Own the quarterly roadmap", "Write requirement documents"}},
	}},
	{name: "Human Resources", positions: []seedPosition{
		{name: "HR Specialist", level: 2, responsibilities: []string{"Run monthly performance cycles", "Onboard new employees"}},
	}},
}

func ensureDirectory(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM departments").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, dept := range seedDepartments {
		var deptID int64
		if err := pool.QueryRow(ctx, "INSERT INTO departments (name) VALUES ($1) RETURNING id", dept.name).Scan(&deptID); err != nil {
			return err
		}
		for _, pos := range dept.positions {
			var posID int64
			if err := pool.QueryRow(ctx, `
        INSERT INTO positions (name, department_id, level) VALUES ($1, $2, $3) RETURNING id
      `, pos.name, deptID, pos.level).Scan(&posID); err != nil {
				return err
			}
			for _, content := range pos.responsibilities {
				if _, err := pool.Exec(ctx, `
          INSERT INTO job_responsibilities (position_id, content, weight) VALUES ($1, $2, $3)
        `, posID, content, 50); err != nil {
					return err
				}
			}
		}
	}
	slog.Info("seeded sample directory data", "departments", len(seedDepartments))
	return nil
}

var seedQuestions = []struct {
	qtype    string
	content  string
	options  []string
	answer   []string
	category string
}{
	{"single", "Which HTTP status code means a resource was not found?", []string{"200", "301", "404", "500"}, []string{"404"}, "Backend Engineer"},
	{"multiple", "Which of these are relational databases?", []string{"PostgreSQL", "Redis", "MySQL", "Kafka"}, []string{"PostgreSQL", "MySQL"}, "Backend Engineer"},
	{"judge", "An index always makes writes faster.", []string{"true", "false"}, []string{"false"}, "Backend Engineer"},
	{"single", "Which CSS property controls the stacking order of elements?", []string{"z-index", "order", "position", "float"}, []string{"z-index"}, "Frontend Engineer"},
	{"judge", "A user story should describe the problem, not only the solution.", []string{"true", "false"}, []string{"true"}, "Product Manager"},
	{"single", "How many days does a standard probation review cover?", []string{"30", "60", "90", "180"}, []string{"90"}, "HR Specialist"},
}

func ensureQuestions(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM question_bank").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, q := range seedQuestions {
		options, err := json.Marshal(q.options)
		if err != nil {
			return err
		}
		answer, err := json.Marshal(q.answer)
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, `
      INSERT INTO question_bank (type, content, options, correct_answer, category, difficulty)
      VALUES ($1, $2, $3, $4, $5, 'medium')
    `, q.qtype, q.content, options, answer, q.category); err != nil {
			return err
		}
	}
	slog.Info("seeded question bank", "questions", len(seedQuestions))
	return nil
}
