package releases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/go-github/v66/github"
	"github.com/hashicorp/go-multierror"

	"github.com/BoboTiG/trafic/pkg/version"
)

const releasesPerPage = 100

type GitHub interface {
	ListReleases(ctx context.Context, owner, repo string, opts *github.ListOptions) ([]*github.RepositoryRelease, *github.Response, error)
}

// Client materializes the release catalog of a GitHub repository. It
// performs no retries; the caller decides what to do with an
// ErrRateLimited/ErrCatalogUnreachable.
type Client struct {
	GitHub     GitHub
	Owner      string
	Repository string
}

func New(owner, repository string) *Client {
	return &Client{
		GitHub:     github.NewClient(nil).Repositories,
		Owner:      owner,
		Repository: repository,
	}
}

// ListReleases walks all pages of the release index and returns every
// non-draft release it could parse, newest first (the index order).
// Entries with an unparsable version are skipped and logged, never fatal
// to the listing.
func (c *Client) ListReleases(ctx context.Context) (_ret []Release, _err error) {
	logger.Debugf(ctx, "ListReleases")
	defer func() { logger.Debugf(ctx, "/ListReleases: %d releases, %v", len(_ret), _err) }()

	var result []Release
	var skipped *multierror.Error
	opts := &github.ListOptions{PerPage: releasesPerPage}
	for {
		page, resp, err := c.GitHub.ListReleases(ctx, c.Owner, c.Repository, opts)
		if err != nil {
			return nil, c.classifyError(err)
		}
		for _, entry := range page {
			if entry.GetDraft() {
				continue
			}
			release, err := convertRelease(entry)
			if err != nil {
				skipped = multierror.Append(skipped, err)
				continue
			}
			result = append(result, *release)
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if err := skipped.ErrorOrNil(); err != nil {
		logger.Warnf(ctx, "skipped some entries of the release catalog of github.com/%s/%s: %v", c.Owner, c.Repository, err)
	}
	return result, nil
}

func (c *Client) classifyError(err error) error {
	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return ErrRateLimited{
			RetryAfter: time.Until(rateLimitErr.Rate.Reset.Time),
			Err:        err,
		}
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		var retryAfter time.Duration
		if abuseErr.RetryAfter != nil {
			retryAfter = *abuseErr.RetryAfter
		}
		return ErrRateLimited{
			RetryAfter: retryAfter,
			Err:        err,
		}
	}

	var jsonSyntaxErr *json.SyntaxError
	var jsonTypeErr *json.UnmarshalTypeError
	if errors.As(err, &jsonSyntaxErr) || errors.As(err, &jsonTypeErr) {
		return ErrCatalogMalformed{Err: err}
	}

	return ErrCatalogUnreachable{
		Err: fmt.Errorf("unable to get the list of releases of github.com/%s/%s: %w", c.Owner, c.Repository, err),
	}
}

func convertRelease(entry *github.RepositoryRelease) (*Release, error) {
	tag := entry.GetTagName()
	if tag == "" {
		tag = entry.GetName()
	}
	if tag == "" {
		return nil, fmt.Errorf("release %d has neither a tag nor a name", entry.GetID())
	}

	v, err := version.Parse(tag)
	if err != nil {
		return nil, fmt.Errorf("unable to parse the version of release '%s': %w", tag, err)
	}

	channel := ChannelStable
	// The prerelease flag overrides the version-derived channel: a final
	// version explicitly published as a prerelease stays on the beta track.
	if v.IsPrerelease() || entry.GetPrerelease() {
		channel = ChannelBeta
	}

	release := &Release{
		Version:     v,
		Channel:     channel,
		PublishedAt: entry.GetPublishedAt().Time,
	}
	for _, asset := range entry.Assets {
		release.Assets = append(release.Assets, Asset{
			Name:        asset.GetName(),
			DownloadURL: asset.GetBrowserDownloadURL(),
			Size:        int64(asset.GetSize()),
		})
	}
	return release, nil
}
