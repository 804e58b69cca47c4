package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/internal/store"
	"github.com/airsyncd/airsyncd/models"
)

// searchService is the collection-backed implementation of SearchService.
// It scans the account's contact collections; a deployment with a real
// directory backend substitutes its own implementation at wiring time.
type searchService struct {
	items  store.ItemStore
	logger *logger.Logger
}

// NewSearchService constructs a SearchService over the item store.
func NewSearchService(items store.ItemStore, logger *logger.Logger) SearchService {
	return &searchService{items: items, logger: logger}
}

// SearchDirectory implements SearchService with a case-insensitive
// substring match over every property of every contact item.
func (s *searchService) SearchDirectory(ctx context.Context, query string, maxResults int) ([]models.Item, error) {
	if query == "" {
		return nil, ErrInvalidDataProvided
	}
	if maxResults <= 0 {
		maxResults = DefaultWindowSize
	}

	collections, err := s.items.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	needle := strings.ToLower(query)
	var matches []models.Item

	for _, collection := range collections {
		if collection.Class != models.ClassContacts {
			continue
		}

		items, err := s.items.Items(ctx, collection.ID)
		if err != nil {
			return nil, fmt.Errorf("scanning collection %s: %w", collection.ID, err)
		}

		for _, item := range items {
			if !propsContain(item.Props, needle) {
				continue
			}
			matches = append(matches, item.Clone())
			if len(matches) >= maxResults {
				return matches, nil
			}
		}
	}

	return matches, nil
}

func propsContain(props map[string]string, needle string) bool {
	for _, value := range props {
		if strings.Contains(strings.ToLower(value), needle) {
			return true
		}
	}
	return false
}
