package api

import (
	"context"

	"github.com/pawhaven/rescuedesk/internal/model"
)

// Pets fetches the current pet listings.
func (c *Client) Pets(ctx context.Context) ([]model.Pet, error) {
	var pets []model.Pet
	if err := c.get(ctx, "/api/pets/", &pets); err != nil {
		return nil, err
	}
	return pets, nil
}
