// Package patreon provides a cookie-authenticated client for the Patreon
// website and its JSON:API endpoints.
//
// This package includes:
//   - Authentication against the home page bootstrap data (CSRF signature and current user)
//   - Creator discovery from the memberships page and layout compatibility checks
//   - Cursor-paginated post listing exposed as a pagination.PageFetcher
//   - Status classification into pkg/errors types with one retry for transient failures
//
// Example usage:
//
//	session, _ := auth.NewSession(cookies, cfg.Patreon.UserAgent, cfg.Patreon.AcceptLanguage)
//	client := patreon.NewClient(session, cfg.Patreon,
//	    patreon.WithLimiter(ratelimit.New(cfg.RateLimit)))
//
//	user, err := client.Authenticate(ctx)
//	if err != nil {
//	    if errors.IsAuth(err) {
//	        // cookies expired, re-export them
//	    }
//	}
//
//	campaignID, err := client.ResolveCampaign(ctx, "somecreator")
//	engine := pagination.NewEngine(client.PostsFetcher(campaignID, "somecreator"), log)
//	posts, stats, err := engine.Collect(ctx, pagination.Options{})
package patreon
