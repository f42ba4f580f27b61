package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/nuntio/internal/browser"
	"github.com/ternarybob/nuntio/internal/common"
)

func TestPublishFlow_BlogReturnsCanonicalURL(t *testing.T) {
	cfg := common.NewDefaultConfig()
	page := newScriptedPage()
	scriptBlogCompose(page, cfg.Blog.ComposeURL, "https://note.com/writer/n/abc123")

	flow := NewPublishFlow(page, fastBrowserConfig(""), testLogger())
	url, err := flow.Run(context.Background(), blogComposeProfile(cfg.Blog), "Test Post", "Hello world")

	require.NoError(t, err)
	assert.Equal(t, "https://note.com/writer/n/abc123", url)
	assert.Equal(t, "Test Post", page.typed[`textarea[placeholder*="タイトル"]`])
	assert.Equal(t, "Hello world", page.typed[`div.ProseMirror[contenteditable="true"]`])
	// Editor focus click precedes body entry.
	assert.Contains(t, page.clicks, `div.ProseMirror[contenteditable="true"]`)
}

func TestPublishFlow_MissingTitleFieldIsTitleFieldTimeout(t *testing.T) {
	cfg := common.NewDefaultConfig()
	page := newScriptedPage() // compose page renders nothing

	flow := NewPublishFlow(page, fastBrowserConfig(t.TempDir()), testLogger())
	_, err := flow.Run(context.Background(), blogComposeProfile(cfg.Blog), "Test Post", "Hello world")

	require.Error(t, err)
	assert.Equal(t, browser.KindTitleFieldTimeout, browser.KindOf(err))
	require.NotNil(t, browser.SnapshotOf(err))
}

func TestPublishFlow_MissingConfirmButtonIsPostButtonTimeout(t *testing.T) {
	cfg := common.NewDefaultConfig()
	page := newScriptedPage()
	page.onNavigate[cfg.Blog.ComposeURL] = func(p *scriptedPage) {
		p.show(`textarea[placeholder*="タイトル"]`, `div.ProseMirror[contenteditable="true"]`, `button[data-type="primary"]`)
	}
	// First-stage click never reveals the confirm button.

	flow := NewPublishFlow(page, fastBrowserConfig(""), testLogger())
	_, err := flow.Run(context.Background(), blogComposeProfile(cfg.Blog), "Test Post", "Hello world")

	require.Error(t, err)
	assert.Equal(t, browser.KindPostButtonTimeout, browser.KindOf(err))
}

func TestPublishFlow_SocialPostsWithoutURLReadback(t *testing.T) {
	cfg := common.NewDefaultConfig()
	page := newScriptedPage()
	page.onNavigate[cfg.Social.HomeURL] = func(p *scriptedPage) {
		p.show(`a[aria-label="Post"]`)
	}
	page.onClick[`a[aria-label="Post"]`] = func(p *scriptedPage) {
		p.show(`div[data-testid="tweetTextarea_0"]`, `button[data-testid="tweetButton"]`)
	}

	flow := NewPublishFlow(page, fastBrowserConfig(""), testLogger())
	url, err := flow.Run(context.Background(), socialComposeProfile(cfg.Social), "", "Headline\n\nhttps://note.com/writer/n/abc123")

	require.NoError(t, err)
	assert.Empty(t, url)
	assert.Contains(t, page.typed[`div[data-testid="tweetTextarea_0"]`], "Headline")
	assert.Contains(t, page.clicks, `button[data-testid="tweetButton"]`)
}

func TestPublishFlow_SocialSecurityModalIsDismissed(t *testing.T) {
	cfg := common.NewDefaultConfig()
	page := newScriptedPage()
	page.onNavigate[cfg.Social.HomeURL] = func(p *scriptedPage) {
		p.show(`a[aria-label="Post"]`)
	}
	page.onClick[`a[aria-label="Post"]`] = func(p *scriptedPage) {
		p.show(`div[data-testid="tweetTextarea_0"]`, `div[aria-label="Close"]`)
	}
	page.onClick[`div[aria-label="Close"]`] = func(p *scriptedPage) {
		p.hide(`div[aria-label="Close"]`)
		p.show(`button[data-testid="tweetButton"]`)
	}

	flow := NewPublishFlow(page, fastBrowserConfig(""), testLogger())
	_, err := flow.Run(context.Background(), socialComposeProfile(cfg.Social), "", "Headline")

	require.NoError(t, err)
	assert.Contains(t, page.clicks, `div[aria-label="Close"]`)
}

func TestPublishFlow_CancellationDuringSettleReturnsContextError(t *testing.T) {
	cfg := common.NewDefaultConfig()
	page := newScriptedPage()
	scriptBlogCompose(page, cfg.Blog.ComposeURL, "https://note.com/writer/n/abc123")

	bcfg := fastBrowserConfig("")
	bcfg.SettleDelay = 500 * time.Millisecond // long enough to cancel into

	ctx, cancel := context.WithCancel(context.Background())
	page.onClick[`button[data-testid="publish-button"]`] = func(p *scriptedPage) {
		cancel()
	}

	flow := NewPublishFlow(page, bcfg, testLogger())
	_, err := flow.Run(ctx, blogComposeProfile(cfg.Blog), "Test Post", "Hello world")

	assert.ErrorIs(t, err, context.Canceled)
}
