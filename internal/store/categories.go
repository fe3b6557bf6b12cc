package store

import "fmt"

// ListCategories returns the user's categories in display order.
func (s *Store) ListCategories() ([]Category, error) {
	rows, err := s.db.Query(`SELECT name, color, icon FROM categories ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.Name, &c.Color, &c.Icon); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// SaveCategory adds a category at the end of the list or updates the color
// and icon of an existing one.
func (s *Store) SaveCategory(c Category) error {
	if c.Name == "" {
		return fmt.Errorf("save category: empty name")
	}
	if c.Color == "" {
		c.Color = FallbackColor
	}
	_, err := s.db.Exec(
		`INSERT INTO categories (position, name, color, icon)
		 VALUES ((SELECT COALESCE(MAX(position), -1) + 1 FROM categories), ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET color = excluded.color, icon = excluded.icon`,
		c.Name, c.Color, c.Icon,
	)
	if err != nil {
		return fmt.Errorf("save category %q: %w", c.Name, err)
	}
	return nil
}

// DeleteCategory removes a category. Logs keep their category name.
func (s *Store) DeleteCategory(name string) error {
	_, err := s.db.Exec(`DELETE FROM categories WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete category %q: %w", name, err)
	}
	return nil
}

func (s *Store) ReplaceCategories(categories []Category) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM categories`); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}
	for i, c := range categories {
		if c.Name == "" {
			continue
		}
		if c.Color == "" {
			c.Color = FallbackColor
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO categories (position, name, color, icon) VALUES (?, ?, ?, ?)`,
			i, c.Name, c.Color, c.Icon,
		); err != nil {
			return fmt.Errorf("insert category %q: %w", c.Name, err)
		}
	}
	return tx.Commit()
}
