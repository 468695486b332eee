// Package seed fills a database with fake users, resources and discussions.
// Everything goes through the services, so seeded data obeys the same
// validation and storage rules as real traffic.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/smartstudy/smartstudy/internal/service"
)

// Password is shared by every seeded account.
const Password = "study-hard-2024"

var subjects = []string{"Mathematics", "Physics", "Chemistry", "Biology", "History", "Computer Science", "Economics"}

type Counts struct {
	Users       int
	Resources   int
	Discussions int
}

// Result holds the IDs created by Run.
type Result struct {
	UserIDs       []string
	ResourceIDs   []string
	DiscussionIDs []string
}

type Seeder struct {
	Auth        *service.AuthService
	Users       *service.UserService
	Resources   *service.ResourceService
	Discussions *service.DiscussionService
	Faker       *gofakeit.Faker
}

func New(auth *service.AuthService, users *service.UserService, resources *service.ResourceService, discussions *service.DiscussionService) *Seeder {
	return &Seeder{
		Auth:        auth,
		Users:       users,
		Resources:   resources,
		Discussions: discussions,
		Faker:       gofakeit.New(0),
	}
}

func (s *Seeder) Run(ctx context.Context, n Counts) (*Result, error) {
	if n.Users < 1 {
		return nil, fmt.Errorf("at least one user is required")
	}

	res := &Result{}
	for i := range n.Users {
		name := s.Faker.Name()
		email := fmt.Sprintf("%s.%d@%s", strings.ToLower(s.Faker.FirstName()), i, "example.com")

		auth, err := s.Auth.Register(ctx, service.RegisterInput{Name: name, Email: email, Password: Password})
		if err != nil {
			return res, fmt.Errorf("register %s: %w", email, err)
		}
		res.UserIDs = append(res.UserIDs, auth.User.ID)
	}

	for range n.Resources {
		owner := s.pick(res.UserIDs)
		title := strings.TrimSuffix(s.Faker.Sentence(4), ".")
		r, err := s.Resources.Create(ctx, owner, service.CreateResourceInput{
			Title:       title,
			Description: s.Faker.Paragraph(1, 2, 12, " "),
			Subject:     s.pick(subjects),
			File: &service.FileInput{
				Name: s.Faker.Word() + "-notes.pdf",
				Data: PDF(title),
			},
		})
		if err != nil {
			return res, fmt.Errorf("create resource: %w", err)
		}
		res.ResourceIDs = append(res.ResourceIDs, r.ID)

		// a few reactions so the feeds are not flat
		for _, userID := range res.UserIDs {
			if s.Faker.Bool() {
				if _, err := s.Resources.ToggleLike(ctx, r.ID, userID); err != nil {
					return res, err
				}
			}
			if s.Faker.Number(0, 3) == 0 {
				if _, err := s.Users.ToggleSave(ctx, userID, r.ID); err != nil {
					return res, err
				}
			}
		}
	}

	for range n.Discussions {
		d, err := s.Discussions.Create(ctx, s.pick(res.UserIDs), service.CreateDiscussionInput{
			Title:   strings.TrimSuffix(s.Faker.Question(), "?") + "?",
			Content: s.Faker.Paragraph(2, 3, 10, "\n\n"),
			Tags:    []string{strings.ToLower(s.pick(subjects)), s.Faker.Word()},
		})
		if err != nil {
			return res, fmt.Errorf("create discussion: %w", err)
		}
		res.DiscussionIDs = append(res.DiscussionIDs, d.ID)

		for range s.Faker.Number(0, 4) {
			_, err := s.Discussions.AddAnswer(ctx, d.ID, s.pick(res.UserIDs), s.Faker.Sentence(12))
			if err != nil {
				return res, fmt.Errorf("add answer: %w", err)
			}
		}
	}

	slog.Info("seed complete",
		"users", len(res.UserIDs),
		"resources", len(res.ResourceIDs),
		"discussions", len(res.DiscussionIDs),
	)
	return res, nil
}

func (s *Seeder) pick(values []string) string {
	return values[s.Faker.Number(0, len(values)-1)]
}

// PDF returns a minimal single page PDF showing title.
func PDF(title string) []byte {
	title = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(title)
	stream := fmt.Sprintf("BT /F1 18 Tf 72 720 Td (%s) Tj ET", title)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	b.WriteString("1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n")
	b.WriteString("2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj\n")
	b.WriteString("3 0 obj << /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >> endobj\n")
	fmt.Fprintf(&b, "4 0 obj << /Length %d >> stream\n%s\nendstream endobj\n", len(stream), stream)
	b.WriteString("5 0 obj << /Type /Font /Subtype /Type1 /BaseFont /Helvetica >> endobj\n")
	b.WriteString("trailer << /Root 1 0 R >>\n%%EOF\n")
	return []byte(b.String())
}
