package web

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"goblog/internal/auth"
	"goblog/internal/blog"
	"goblog/internal/store"
)

// Setup a test server with a fresh temp database
func setupTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "blog-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	accounts := auth.NewAccounts(st)
	srv := NewServer(Options{
		Accounts:    accounts,
		Sessions:    auth.NewSessions(auth.NewCookieStore([]byte("test-secret-key-0123456789abcdef"), 3600), accounts),
		Posts:       blog.NewPosts(st),
		Logger:      logger,
		TemplateDir: "../../templates",
		StaticDir:   "../../static",
	})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	// Client with cookie jar, follows redirects automatically
	jar, _ := cookiejar.New(nil)
	client := ts.Client()
	client.Jar = jar

	return ts, client
}

// Helper: read response body as string
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func postForm(t *testing.T, ts *httptest.Server, client *http.Client, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := client.PostForm(ts.URL+path, form)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func get(t *testing.T, ts *httptest.Server, client *http.Client, path string) *http.Response {
	t.Helper()
	resp, err := client.Get(ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// Helper: register a user
func register(t *testing.T, ts *httptest.Server, client *http.Client, username, email, password, confirm string) string {
	t.Helper()
	if confirm == "" {
		confirm = password
	}
	if email == "" {
		email = username + "@example.com"
	}
	return readBody(t, postForm(t, ts, client, "/register", url.Values{
		"username": {username},
		"email":    {email},
		"password": {password},
		"confirm":  {confirm},
	}))
}

// Helper: login
func login(t *testing.T, ts *httptest.Server, client *http.Client, username, password string) string {
	t.Helper()
	return readBody(t, postForm(t, ts, client, "/login", url.Values{
		"username": {username},
		"password": {password},
	}))
}

// Helper: register and login
func registerAndLogin(t *testing.T, ts *httptest.Server, client *http.Client, username, password string) string {
	t.Helper()
	register(t, ts, client, username, "", password, "")
	return login(t, ts, client, username, password)
}

// Helper: logout
func doLogout(t *testing.T, ts *httptest.Server, client *http.Client) string {
	t.Helper()
	return readBody(t, get(t, ts, client, "/logout"))
}

// Helper: create a post
func createPost(t *testing.T, ts *httptest.Server, client *http.Client, title, content string) string {
	t.Helper()
	return readBody(t, postForm(t, ts, client, "/post/new", url.Values{
		"title":   {title},
		"content": {content},
	}))
}

// Helper: GET a page and return body
func getBody(t *testing.T, ts *httptest.Server, client *http.Client, path string) string {
	t.Helper()
	return readBody(t, get(t, ts, client, path))
}

func TestRegister(t *testing.T) {
	ts, client := setupTestServer(t)

	// Successful registration
	body := register(t, ts, client, "user1", "", "default", "")
	if !strings.Contains(body, "You were successfully registered and can login now") {
		t.Error("Expected successful registration message")
	}

	// Duplicate username
	body = register(t, ts, client, "user1", "other@example.com", "default", "")
	if !strings.Contains(body, "username already exists!") {
		t.Error("Expected 'username already exists' message")
	}

	// Duplicate email
	body = register(t, ts, client, "user2", "user1@example.com", "default", "")
	if !strings.Contains(body, "email already exists!") {
		t.Error("Expected 'email already exists' message")
	}

	// Mismatched passwords
	body = register(t, ts, client, "meh", "meh@example.com", "x", "y")
	if !strings.Contains(body, "passwords do not match") {
		t.Error("Expected 'passwords do not match' message")
	}

	// Invalid email
	body = register(t, ts, client, "meh", "broken", "foo", "")
	if !strings.Contains(body, "Invalid email address.") {
		t.Error("Expected 'invalid email' message")
	}

	// Empty username
	body = register(t, ts, client, "", "test@example.com", "default", "")
	if !strings.Contains(body, "This field is required.") {
		t.Error("Expected 'required' message")
	}
}

func TestLoginLogout(t *testing.T) {
	ts, client := setupTestServer(t)

	// Register and login
	body := registerAndLogin(t, ts, client, "user1", "default")
	if !strings.Contains(body, "You were logged in") {
		t.Error("Expected 'logged in' message")
	}
	if !strings.Contains(getBody(t, ts, client, "/about"), "user1@example.com") {
		t.Error("Expected the profile of the logged in user")
	}

	// Logout
	body = doLogout(t, ts, client)
	if !strings.Contains(body, "You were logged out") {
		t.Error("Expected 'logged out' message")
	}
	if !strings.Contains(body, `href="/login"`) {
		t.Error("Expected anonymous navigation after logout")
	}

	// Wrong password
	body = login(t, ts, client, "user1", "wrongpassword")
	if !strings.Contains(body, "Invalid username or password") {
		t.Error("Expected 'Invalid username or password' message")
	}

	// Wrong username
	body = login(t, ts, client, "user2", "wrongpassword")
	if !strings.Contains(body, "Invalid username or password") {
		t.Error("Expected 'Invalid username or password' message")
	}
}

func TestLoginRedirectsToNext(t *testing.T) {
	ts, client := setupTestServer(t)
	register(t, ts, client, "alice", "a@x.com", "secret", "")

	resp := get(t, ts, client, "/post/new")
	body := readBody(t, resp)
	if resp.Request.URL.Path != "/login" || resp.Request.URL.Query().Get("next") != "/post/new" {
		t.Fatalf("Expected redirect to login with next, got %s", resp.Request.URL)
	}
	if !strings.Contains(body, "Please log in to access this page.") {
		t.Error("Expected login prompt")
	}

	resp = postForm(t, ts, client, "/login", url.Values{
		"username": {"alice"},
		"password": {"secret"},
		"next":     {"/post/new"},
	})
	body = readBody(t, resp)
	if resp.Request.URL.Path != "/post/new" || !strings.Contains(body, "Create Post") {
		t.Errorf("Expected to land on the new post form, got %s", resp.Request.URL)
	}
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                     "/",
		"/post/1/update":       "/post/1/update",
		"//evil.example":       "/",
		"https://evil.example": "/",
		"/\\evil.example":      "/",
		"/\t/evil.example":     "/",
		"/\x7f/evil.example":   "/",
		"/post/1?x=1":          "/post/1?x=1",
	}
	for in, want := range cases {
		if got := safeNext(in); got != want {
			t.Errorf("safeNext(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoginIgnoresUnsafeNext(t *testing.T) {
	ts, client := setupTestServer(t)
	register(t, ts, client, "alice", "a@x.com", "secret", "")

	resp := postForm(t, ts, client, "/login", url.Values{
		"username": {"alice"},
		"password": {"secret"},
		"next":     {"/\t/evil.example"},
	})
	readBody(t, resp)
	if resp.Request.URL.Host != strings.TrimPrefix(ts.URL, "http://") || resp.Request.URL.Path != "/" {
		t.Errorf("Expected to land on the local feed, got %s", resp.Request.URL)
	}
}

func TestFormPagesRender(t *testing.T) {
	ts, client := setupTestServer(t)

	resp := get(t, ts, client, "/register")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Join Today") {
		t.Errorf("Expected the register form, got %d", resp.StatusCode)
	}
	resp = get(t, ts, client, "/login")
	readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected the login form, got %d", resp.StatusCode)
	}

	registerAndLogin(t, ts, client, "alice", "secret")
	createPost(t, ts, client, "Hello", "World")

	pages := map[string]string{
		"/about":         "Account Info",
		"/post/new":      "Create Post",
		"/post/1/update": "Update Post",
	}
	for path, marker := range pages {
		resp := get(t, ts, client, path)
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusOK || !strings.Contains(body, marker) {
			t.Errorf("Expected %s to render %q, got %d", path, marker, resp.StatusCode)
		}
	}
}

func TestPostLifecycle(t *testing.T) {
	ts, client := setupTestServer(t)

	// Scenario: register, login, post, read the feed
	register(t, ts, client, "alice", "a@x.com", "secret", "secret")
	login(t, ts, client, "alice", "secret")
	body := createPost(t, ts, client, "Hello", "World")
	if !strings.Contains(body, "Your post has been created!") {
		t.Error("Expected post creation message")
	}

	body = getBody(t, ts, client, "/")
	if !strings.Contains(body, "Hello") || !strings.Contains(body, "World") {
		t.Error("Expected the new post on the feed")
	}
	if !strings.Contains(getBody(t, ts, client, "/home"), "Hello") {
		t.Error("Expected the new post on /home")
	}

	body = getBody(t, ts, client, "/post/1")
	if !strings.Contains(body, "Hello") || !strings.Contains(body, "alice") {
		t.Error("Expected the post page to show title and author")
	}
	if !strings.Contains(body, "/post/1/update") {
		t.Error("Expected the owner to see the update link")
	}

	// Owner edits
	body = readBody(t, postForm(t, ts, client, "/post/1/update", url.Values{
		"title":   {"Hello again"},
		"content": {"World again"},
	}))
	if !strings.Contains(body, "Your post has been updated!") || !strings.Contains(body, "Hello again") {
		t.Error("Expected the updated post")
	}

	// Own posts on the profile page
	if !strings.Contains(getBody(t, ts, client, "/about"), "Hello again") {
		t.Error("Expected the post on the profile page")
	}

	// Logged out users are bounced to login and nothing changes
	doLogout(t, ts, client)
	resp := get(t, ts, client, "/post/1/update")
	readBody(t, resp)
	if resp.Request.URL.Path != "/login" {
		t.Errorf("Expected redirect to login, got %s", resp.Request.URL.Path)
	}
	resp = postForm(t, ts, client, "/post/1/update", url.Values{
		"title":   {"Defaced"},
		"content": {"x"},
	})
	readBody(t, resp)
	if resp.Request.URL.Path != "/login" {
		t.Errorf("Expected redirect to login, got %s", resp.Request.URL.Path)
	}
	body = getBody(t, ts, client, "/post/1")
	if strings.Contains(body, "Defaced") || !strings.Contains(body, "Hello again") {
		t.Error("Did not expect an anonymous edit to be applied")
	}

	// Owner deletes
	login(t, ts, client, "alice", "secret")
	body = readBody(t, postForm(t, ts, client, "/post/1/delete", nil))
	if !strings.Contains(body, "Your post has been deleted!") {
		t.Error("Expected post deletion message")
	}
	resp = get(t, ts, client, "/post/1")
	readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestOwnership(t *testing.T) {
	ts, client := setupTestServer(t)

	registerAndLogin(t, ts, client, "alice", "secret")
	createPost(t, ts, client, "Hello", "World")
	doLogout(t, ts, client)

	registerAndLogin(t, ts, client, "bob", "secret")
	body := getBody(t, ts, client, "/post/1")
	if strings.Contains(body, "/post/1/update") {
		t.Error("Did not expect bob to see the update link")
	}

	resp := get(t, ts, client, "/post/1/update")
	readBody(t, resp)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 on update form, got %d", resp.StatusCode)
	}

	resp = postForm(t, ts, client, "/post/1/update", url.Values{
		"title":   {"Hijacked"},
		"content": {"x"},
	})
	readBody(t, resp)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 on update, got %d", resp.StatusCode)
	}

	resp = postForm(t, ts, client, "/post/1/delete", nil)
	readBody(t, resp)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 on delete, got %d", resp.StatusCode)
	}

	body = getBody(t, ts, client, "/post/1")
	if !strings.Contains(body, "Hello") || strings.Contains(body, "Hijacked") {
		t.Error("Expected alice's post untouched")
	}
}

func TestPostNotFound(t *testing.T) {
	ts, client := setupTestServer(t)

	resp := get(t, ts, client, "/post/999")
	readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}

	registerAndLogin(t, ts, client, "alice", "secret")
	resp = get(t, ts, client, "/post/999/update")
	readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 on update of missing post, got %d", resp.StatusCode)
	}
	resp = postForm(t, ts, client, "/post/999/delete", nil)
	readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 on delete of missing post, got %d", resp.StatusCode)
	}
}

func TestPostValidation(t *testing.T) {
	ts, client := setupTestServer(t)
	registerAndLogin(t, ts, client, "alice", "secret")

	body := createPost(t, ts, client, "", "content only")
	if !strings.Contains(body, "This field is required.") {
		t.Error("Expected a required title error")
	}
	if !strings.Contains(body, "content only") {
		t.Error("Expected the submitted content to be kept")
	}
	if strings.Contains(getBody(t, ts, client, "/"), "content only") {
		t.Error("Did not expect an invalid post to be stored")
	}
}

func TestHTMLEscaping(t *testing.T) {
	ts, client := setupTestServer(t)

	registerAndLogin(t, ts, client, "foo", "default")
	createPost(t, ts, client, "<test title>", "<b>bold</b>")

	body := getBody(t, ts, client, "/")
	if !strings.Contains(body, "&lt;test title&gt;") {
		t.Error("Expected HTML-escaped title on the feed")
	}
	if strings.Contains(body, "<b>bold</b>") {
		t.Error("Did not expect raw HTML from post content")
	}
}

func TestUpdateProfile(t *testing.T) {
	ts, client := setupTestServer(t)

	register(t, ts, client, "bob", "b@x.com", "secret", "")
	registerAndLogin(t, ts, client, "alice", "secret")

	body := readBody(t, postForm(t, ts, client, "/about", url.Values{
		"username": {"bob"},
		"email":    {"new@x.com"},
	}))
	if !strings.Contains(body, "username already exists!") {
		t.Error("Expected 'username already exists' message")
	}

	body = readBody(t, postForm(t, ts, client, "/about", url.Values{
		"username": {"alice"},
		"email":    {"b@x.com"},
	}))
	if !strings.Contains(body, "email already exists!") {
		t.Error("Expected 'email already exists' message")
	}

	body = readBody(t, postForm(t, ts, client, "/about", url.Values{
		"username": {"alicia"},
		"email":    {"alicia@x.com"},
	}))
	if !strings.Contains(body, "Your account has been updated!") || !strings.Contains(body, "alicia@x.com") {
		t.Error("Expected the updated profile")
	}

	// The session follows the renamed user
	doLogout(t, ts, client)
	if !strings.Contains(login(t, ts, client, "alicia", "secret"), "You were logged in") {
		t.Error("Expected login under the new username")
	}
}

func TestLoggedInUsersSkipAuthPages(t *testing.T) {
	ts, client := setupTestServer(t)
	registerAndLogin(t, ts, client, "alice", "secret")

	for _, path := range []string{"/login", "/register"} {
		resp := get(t, ts, client, path)
		readBody(t, resp)
		if resp.Request.URL.Path != "/" {
			t.Errorf("Expected %s to redirect home, got %s", path, resp.Request.URL.Path)
		}
	}
}

func TestStaticPages(t *testing.T) {
	ts, client := setupTestServer(t)

	resp := get(t, ts, client, "/contact")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Contact") {
		t.Errorf("Expected contact page, got %d", resp.StatusCode)
	}

	resp = get(t, ts, client, "/static/style.css")
	readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected stylesheet, got %d", resp.StatusCode)
	}

	resp = get(t, ts, client, "/nope/nothing")
	readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestErrorPagesKnowTheUser(t *testing.T) {
	ts, client := setupTestServer(t)
	registerAndLogin(t, ts, client, "alice", "secret")
	createPost(t, ts, client, "Hello", "World")

	resp := get(t, ts, client, "/nope/nothing")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(body, "Logout") {
		t.Errorf("Expected a 404 page with the logged-in nav, got %d", resp.StatusCode)
	}

	resp = get(t, ts, client, "/post/1/delete")
	body = readBody(t, resp)
	if resp.StatusCode != http.StatusMethodNotAllowed || !strings.Contains(body, "Method Not Allowed") || !strings.Contains(body, "Logout") {
		t.Errorf("Expected an HTML 405 page, got %d", resp.StatusCode)
	}
}

func TestBouncedFormSubmissionSkipsNext(t *testing.T) {
	ts, client := setupTestServer(t)

	resp := postForm(t, ts, client, "/post/1/delete", nil)
	readBody(t, resp)
	if resp.Request.URL.Path != "/login" || resp.Request.URL.Query().Get("next") != "" {
		t.Errorf("Expected a plain login redirect, got %s", resp.Request.URL)
	}
}
