// Package content seeds the default portfolio sections.
package content

import (
	"context"
	"fmt"

	"portfolio-cms/backend/internal/content/domain"
	"portfolio-cms/backend/internal/content/repository"
)

// baseSections are installed only into an empty store.
var baseSections = []struct {
	name    string
	content string
}{
	{domain.SectionPersonalInfo, `{
		"name": "Your Name",
		"role": "Flutter Developer",
		"email": "hello@example.com",
		"phone": "+977 9800000000",
		"birthday": "1 January, 2000",
		"location": "Chitwan, Nepal",
		"avatar": "https://api.dicebear.com/7.x/avataaars/svg?seed=portfolio"
	}`},
	{domain.SectionAbout, `{
		"bio": "A developer focused on building clean, high-quality applications.",
		"services": [
			{"title": "Web Design", "description": "Modern and high-quality design made at a professional level.", "icon": "Layout"},
			{"title": "Web Development", "description": "High-quality development of sites at the professional level.", "icon": "Code"},
			{"title": "Mobile Apps", "description": "Professional development of applications for iOS and Android.", "icon": "Smartphone"},
			{"title": "Photography", "description": "High-quality photos of any category at a professional level.", "icon": "Camera"}
		]
	}`},
	{domain.SectionClients, `[
		{"name": "Client 1", "logo": "https://via.placeholder.com/150", "url": "#"},
		{"name": "Client 2", "logo": "https://via.placeholder.com/150", "url": "#"}
	]`},
	{domain.SectionResume, `{
		"education": [{"title": "University name", "date": "2010 - 2013", "description": "Degree and highlights."}],
		"experience": [{"title": "Creative director", "date": "2015 - Present", "description": "Role and highlights."}],
		"skills": [
			{"name": "Web Design", "value": 80},
			{"name": "Graphic Design", "value": 50},
			{"name": "Writing", "value": 85},
			{"name": "App Development", "value": 85}
		]
	}`},
}

// listSections are installed individually whenever missing.
var listSections = []struct {
	name    string
	content string
}{
	{domain.SectionPortfolio, `[
		{"title": "Finance App", "category": "Web Development", "image": "https://api.dicebear.com/7.x/shapes/svg?seed=p1"},
		{"title": "Orizon", "category": "Web Design", "image": "https://api.dicebear.com/7.x/shapes/svg?seed=p2"},
		{"title": "Fundo", "category": "Web Design", "image": "https://api.dicebear.com/7.x/shapes/svg?seed=p3"},
		{"title": "Brawlhalla", "category": "App Development", "image": "https://api.dicebear.com/7.x/shapes/svg?seed=p4"}
	]`},
	{domain.SectionBlog, `[]`},
}

// Seed installs default content. Base sections go in only when the store is empty; portfolio and
// blog are added whenever missing. Existing sections are never overwritten. Returns the names inserted.
func Seed(ctx context.Context, repo repository.Repository) ([]string, error) {
	n, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count sections: %w", err)
	}
	var inserted []string
	if n == 0 {
		for _, s := range baseSections {
			ok, err := repo.InsertIfMissing(ctx, s.name, []byte(s.content))
			if err != nil {
				return inserted, fmt.Errorf("seed %s: %w", s.name, err)
			}
			if ok {
				inserted = append(inserted, s.name)
			}
		}
	}
	for _, s := range listSections {
		ok, err := repo.InsertIfMissing(ctx, s.name, []byte(s.content))
		if err != nil {
			return inserted, fmt.Errorf("seed %s: %w", s.name, err)
		}
		if ok {
			inserted = append(inserted, s.name)
		}
	}
	return inserted, nil
}
