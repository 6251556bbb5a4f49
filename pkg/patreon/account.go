package patreon

import (
	"context"
	"fmt"

	errs "ptscraper/pkg/errors"
	"ptscraper/pkg/models"
)

// Authenticate loads the home page, reads the CSRF signature and the current
// user from its bootstrap data, and switches the client to a session that
// carries the signature. Missing data means the cookies are not logged in.
func (c *Client) Authenticate(ctx context.Context) (*models.User, error) {
	c.logger.Debug("authenticating session")

	resp, err := c.getPage(ctx, c.HomeURL())
	if err != nil {
		return nil, err
	}

	data, err := ParseNextData(resp.body)
	if err != nil {
		return nil, errs.NewAuthError(0, fmt.Sprintf("could not find page data; authentication may have failed: %v", err))
	}

	bootstrap := digMap(data, "props", "pageProps", "bootstrapEnvelope")
	if bootstrap == nil {
		return nil, errs.NewAuthError(0, "page data has no bootstrap envelope; authentication may have failed")
	}

	csrf := digString(bootstrap, "csrfSignature")
	if csrf == "" {
		return nil, errs.NewAuthError(0, "could not extract CSRF signature")
	}

	userID := digString(bootstrap, "userId")
	if userID == "" {
		return nil, errs.NewAuthError(0, "no user ID found; the cookies are not logged in")
	}

	current := digMap(bootstrap, "commonBootstrap", "currentUser", "data")
	pledges, _ := dig(current, "relationships", "pledges", "data").([]interface{})

	user := &models.User{
		ID:          userID,
		FullName:    orDefault(digString(current, "attributes", "full_name"), "Unknown"),
		Email:       orDefault(digString(current, "attributes", "email"), "Unknown"),
		PledgeCount: len(pledges),
	}

	c.session = c.session.WithCSRF(csrf)

	c.logger.InfoWithFields("authenticated", map[string]interface{}{
		"user_id": user.ID,
		"name":    user.FullName,
		"pledges": user.PledgeCount,
	})
	return user, nil
}
