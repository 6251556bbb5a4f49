package main

import (
	"errors"
	"fmt"

	"ptscraper/pkg/auth"
	"ptscraper/pkg/cache"
	"ptscraper/pkg/config"
	errs "ptscraper/pkg/errors"
	"ptscraper/pkg/logger"
	"ptscraper/pkg/patreon"
	"ptscraper/pkg/ratelimit"
	"ptscraper/pkg/retry"
)

const patreonDomain = "patreon.com"

// sessionSource selects where the browser session comes from. At most one
// field is expected to be set; all empty means cookie directory, then the
// saved default session.
type sessionSource struct {
	cookieFile  string
	browser     string
	accountName string
}

// resolveSession builds the session and returns a label describing where it
// came from
func resolveSession(cfg *config.Config, src sessionSource) (*auth.Session, string, error) {
	ua, lang := cfg.Patreon.UserAgent, cfg.Patreon.AcceptLanguage

	switch {
	case src.cookieFile != "":
		cookies, err := auth.LoadCookieFile(src.cookieFile)
		if err != nil {
			return nil, "", errs.NewAuthError(0, err.Error())
		}
		session, err := auth.NewSession(cookies, ua, lang)
		return session, src.cookieFile, err

	case src.browser != "":
		cookies, err := auth.FromBrowser(src.browser, patreonDomain)
		if err != nil {
			return nil, "", errs.NewAuthError(0, err.Error())
		}
		session, err := auth.NewSession(cookies, ua, lang)
		return session, "browser " + src.browser, err

	case src.accountName != "":
		manager, err := auth.NewManager(cfg.StateDir())
		if err != nil {
			return nil, "", err
		}
		account, err := manager.Retrieve(src.accountName)
		if err != nil {
			return nil, "", errs.NewAuthError(0, fmt.Sprintf("no saved session named %q; see 'ptscraper auth list'", src.accountName))
		}
		session, err := account.Session(ua, lang)
		return session, "saved session " + account.Name, err
	}

	if path, err := auth.FindCookieFile(cfg.Patreon.CookiesDir, cfg.Patreon.CookiesFile); err == nil {
		cookies, err := auth.LoadCookieFile(path)
		if err != nil {
			return nil, "", errs.NewAuthError(0, err.Error())
		}
		session, err := auth.NewSession(cookies, ua, lang)
		return session, path, err
	}

	manager, err := auth.NewManager(cfg.StateDir())
	if err != nil {
		return nil, "", err
	}
	account, err := manager.RetrieveDefault()
	if errors.Is(err, auth.ErrCredentialsNotFound) {
		return nil, "", errs.NewAuthError(0, "no Patreon cookies found\n\n"+auth.CookieExportHint())
	}
	if err != nil {
		return nil, "", err
	}
	session, err := account.Session(ua, lang)
	return session, "saved session " + account.Name, err
}

// newClient builds the Patreon client from configuration. The returned
// cleanup closes the response cache when one was opened.
func newClient(cfg *config.Config, session *auth.Session) (*patreon.Client, func(), error) {
	rc := retry.DefaultConfig()
	rc.MaxRetries = cfg.Scrape.MaxRetries
	rc.Backoff = retry.BackoffFor(cfg.Scrape.RetryBackoff, cfg.Scrape.RetryDelay)

	log := logger.GetLogger()
	opts := []patreon.Option{
		patreon.WithLogger(log),
		patreon.WithRetry(rc),
		patreon.WithLimiter(ratelimit.New(cfg.RateLimit)),
		patreon.WithTimeout(cfg.Scrape.RequestTimeout),
	}

	cleanup := func() {}
	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, patreon.WithCache(store))
		cleanup = func() {
			if err := store.Close(); err != nil {
				log.WithError(err).Warn("Failed to close response cache")
			}
		}
		log.WithField("path", cfg.Cache.Path).Debug("Response cache enabled")
	}

	return patreon.NewClient(session, cfg.Patreon, opts...), cleanup, nil
}
