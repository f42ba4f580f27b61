// -----------------------------------------------------------------------
// Publishing profiles - per-site selector and flow configuration
// One parameterized login/publish flow runs against these declarative
// profiles instead of per-site flow code.
// -----------------------------------------------------------------------

package publisher

import (
	"github.com/ternarybob/nuntio/internal/browser"
	"github.com/ternarybob/nuntio/internal/common"
)

// Credentials are immutable for the process lifetime and sourced from
// configuration. Values must never reach a log line or notification.
type Credentials struct {
	Identifier string
	Secondary  string
	Secret     string
}

// Submit describes how a login screen is advanced: click a button when
// Selector is set, otherwise press Enter on the focused field.
type Submit struct {
	Selector string
}

// VerificationSource selects where the verification value comes from.
type VerificationSource int

const (
	// SecondarySource types the secondary identifier (username or phone).
	SecondarySource VerificationSource = iota
	// MailboxSource fetches a one-time code from the operator mailbox.
	MailboxSource
)

// Verification is an optional interstitial screen between identifier and
// password entry. Detection timeout expiring means the screen was not
// interposed this run, which is not an error.
type Verification struct {
	Field  browser.Candidate
	Source VerificationSource
}

// LoginProfile parameterizes one site's authentication flow.
type LoginProfile struct {
	Name             string
	URL              string
	IdentifierField  browser.Candidate
	IdentifierSubmit *Submit
	Verification     *Verification
	PasswordField    browser.Candidate
	PasswordSubmit   Submit
	SuccessLandmarks []browser.Candidate
	FailureLandmarks []browser.Candidate
	Diagnostics      []browser.Landmark
}

// ComposeProfile parameterizes one site's content-creation flow.
type ComposeProfile struct {
	Name       string
	URL        string
	OpenButton *browser.Candidate
	TitleField *browser.Candidate
	BodyField  browser.Candidate
	// The body editor needs a click to take focus (contenteditable).
	BodyRequiresClick bool
	// Two-stage confirmation: PublishButton opens the confirm surface,
	// ConfirmButton commits. PublishButton nil means single-stage.
	PublishButton *browser.Candidate
	ConfirmButton browser.Candidate
	// Modal dismissed before confirming, when it renders (ModalWait bound).
	DismissModal *browser.Candidate
	// ReadBackURL reads the canonical address after the settle delay.
	ReadBackURL bool
	Diagnostics []browser.Landmark
}

// blogLoginProfile builds the note.com authentication profile.
func blogLoginProfile(cfg common.BlogConfig) LoginProfile {
	return LoginProfile{
		Name: "blog",
		URL:  cfg.LoginURL,
		IdentifierField: browser.Candidate{
			Selector: "#email", Role: "email_field",
		},
		PasswordField: browser.Candidate{
			Selector: "#password", Role: "password_field",
		},
		PasswordSubmit: Submit{Selector: `button[type="submit"]`},
		SuccessLandmarks: []browser.Candidate{
			{Selector: `div[class*="note-header"]`, Role: "home_header"},
			{Selector: `a[href="/notes/new"]`, Role: "compose_link"},
		},
		FailureLandmarks: []browser.Candidate{
			{Selector: `div[class*="error"]`, Role: "login_error", Condition: browser.Visible},
		},
		Diagnostics: []browser.Landmark{
			{Name: "email_field", Selector: "#email"},
			{Name: "password_field", Selector: "#password"},
			{Name: "login_submit", Selector: `button[type="submit"]`},
			{Name: "home_header", Selector: `div[class*="note-header"]`},
		},
	}
}

// blogComposeProfile builds the note.com editor profile. The editor has
// no reliable post-confirmation landmark, so a settle delay precedes the
// URL read-back.
func blogComposeProfile(cfg common.BlogConfig) ComposeProfile {
	return ComposeProfile{
		Name: "blog",
		URL:  cfg.ComposeURL,
		TitleField: &browser.Candidate{
			Selector: `textarea[placeholder*="タイトル"]`, Role: "title_field",
		},
		BodyField: browser.Candidate{
			Selector: `div.ProseMirror[contenteditable="true"]`, Role: "body_editor",
		},
		BodyRequiresClick: true,
		PublishButton: &browser.Candidate{
			Selector: `button[data-type="primary"]`, Role: "publish_button", Condition: browser.Visible,
		},
		ConfirmButton: browser.Candidate{
			Selector: `button[data-testid="publish-button"]`, Role: "post_button", Condition: browser.Visible,
		},
		ReadBackURL: true,
		Diagnostics: []browser.Landmark{
			{Name: "title_field", Selector: `textarea[placeholder*="タイトル"]`},
			{Name: "body_editor", Selector: `div.ProseMirror[contenteditable="true"]`},
			{Name: "publish_button", Selector: `button[data-type="primary"]`},
		},
	}
}

// socialLoginProfile builds the social-network authentication profile.
// The site sometimes interposes a verification screen before password
// entry; it asks for the account username, or for an emailed one-time
// code when the account has code challenges enabled. With `[social.otp]`
// configured the screen is answered from the operator mailbox, otherwise
// with the secondary identifier.
func socialLoginProfile(cfg common.SocialConfig) LoginProfile {
	source := SecondarySource
	if cfg.OTP.Sender != "" {
		source = MailboxSource
	}

	return LoginProfile{
		Name: "social",
		URL:  cfg.LoginURL,
		IdentifierField: browser.Candidate{
			Selector: `input[autocomplete="username"]`, Role: "username_field",
		},
		IdentifierSubmit: &Submit{},
		Verification: &Verification{
			Field: browser.Candidate{
				Selector: `input[data-testid="ocfEnterTextTextInput"]`, Role: "verification_field",
			},
			Source: source,
		},
		PasswordField: browser.Candidate{
			Selector: `input[name="password"]`, Role: "password_field",
		},
		PasswordSubmit: Submit{},
		SuccessLandmarks: []browser.Candidate{
			{Selector: `div[data-testid="tweetTextarea_0"]`, Role: "compose_box"},
			{Selector: `a[aria-label="Post"]`, Role: "post_link"},
		},
		FailureLandmarks: []browser.Candidate{
			{Selector: `div[data-testid="error-detail"]`, Role: "login_error", Condition: browser.Visible},
		},
		Diagnostics: []browser.Landmark{
			{Name: "username_field", Selector: `input[autocomplete="username"]`},
			{Name: "verification_field", Selector: `input[data-testid="ocfEnterTextTextInput"]`},
			{Name: "password_field", Selector: `input[name="password"]`},
			{Name: "compose_box", Selector: `div[data-testid="tweetTextarea_0"]`},
		},
	}
}

// socialComposeProfile builds the posting profile. Posting is single
// stage with no canonical URL read-back; success is confirmed by the
// compose box clearing, for which no stable landmark exists, so only
// the settle delay applies.
func socialComposeProfile(cfg common.SocialConfig) ComposeProfile {
	return ComposeProfile{
		Name: "social",
		URL:  cfg.HomeURL,
		OpenButton: &browser.Candidate{
			Selector: `a[aria-label="Post"]`, Role: "post_link", Condition: browser.Visible,
		},
		BodyField: browser.Candidate{
			Selector: `div[data-testid="tweetTextarea_0"]`, Role: "compose_box",
		},
		BodyRequiresClick: true,
		ConfirmButton: browser.Candidate{
			Selector: `button[data-testid="tweetButton"]`, Role: "post_button", Condition: browser.Visible,
		},
		DismissModal: &browser.Candidate{
			Selector: `div[aria-label="Close"]`, Role: "security_modal", Condition: browser.Visible,
		},
		Diagnostics: []browser.Landmark{
			{Name: "post_link", Selector: `a[aria-label="Post"]`},
			{Name: "compose_box", Selector: `div[data-testid="tweetTextarea_0"]`},
			{Name: "post_button", Selector: `button[data-testid="tweetButton"]`},
		},
	}
}
