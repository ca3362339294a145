package rest

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"safeguard-go/internal/models"
)

func (c *Client) InsertProfile(ctx context.Context, input models.NewProfile) (*models.User, error) {
	var user models.User
	if err := c.call(ctx, http.MethodPost, "/api/profiles", input, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetProfile(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := c.call(ctx, http.MethodGet, "/api/profiles/"+url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (*models.User, error) {
	var user models.User
	if err := c.call(ctx, http.MethodPatch, "/api/profiles/"+url.PathEscape(id), patch, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) CreateAlert(ctx context.Context, input models.NewAlert) (*models.SOSAlert, error) {
	var alert models.SOSAlert
	if err := c.call(ctx, http.MethodPost, "/api/sos/alerts", input, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

func (c *Client) ActiveAlert(ctx context.Context) (*models.SOSAlert, error) {
	alerts := []models.SOSAlert{}
	if err := c.call(ctx, http.MethodGet, "/api/sos/alerts?status=active&limit=1", nil, &alerts); err != nil {
		return nil, err
	}
	if len(alerts) == 0 {
		return nil, nil
	}
	return &alerts[0], nil
}

func (c *Client) ResolveAlert(ctx context.Context, id string) (*models.SOSAlert, error) {
	var alert models.SOSAlert
	if err := c.call(ctx, http.MethodPost, "/api/sos/alerts/"+url.PathEscape(id)+"/resolve", nil, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

func (c *Client) CreateNotification(ctx context.Context, alertID string, input models.NewNotification) (*models.SOSNotification, error) {
	var notification models.SOSNotification
	path := "/api/sos/alerts/" + url.PathEscape(alertID) + "/notifications"
	if err := c.call(ctx, http.MethodPost, path, input, &notification); err != nil {
		return nil, err
	}
	return &notification, nil
}

func (c *Client) ListNotifications(ctx context.Context, alertID string) ([]models.SOSNotification, error) {
	notifications := []models.SOSNotification{}
	path := "/api/sos/alerts/" + url.PathEscape(alertID) + "/notifications"
	if err := c.call(ctx, http.MethodGet, path, nil, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (c *Client) CreateIncident(ctx context.Context, input models.NewIncident) (*models.Incident, error) {
	var incident models.Incident
	if err := c.call(ctx, http.MethodPost, "/api/incidents", input, &incident); err != nil {
		return nil, err
	}
	return &incident, nil
}

func (c *Client) ListIncidents(ctx context.Context) ([]models.Incident, error) {
	incidents := []models.Incident{}
	if err := c.call(ctx, http.MethodGet, "/api/incidents", nil, &incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

func (c *Client) UploadEvidence(ctx context.Context, incidentID, filename string, body io.Reader) (*models.Incident, error) {
	var incident models.Incident
	req := c.request(ctx).SetFileReader("file", filename, body)
	if err := c.send(req, http.MethodPost, "/api/incidents/"+url.PathEscape(incidentID)+"/evidence", &incident); err != nil {
		return nil, err
	}
	return &incident, nil
}

func (c *Client) ListPosts(ctx context.Context) ([]models.ForumPost, error) {
	posts := []models.ForumPost{}
	if err := c.call(ctx, http.MethodGet, "/api/forum/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) CreatePost(ctx context.Context, input models.NewPost) (*models.ForumPost, error) {
	var post models.ForumPost
	if err := c.call(ctx, http.MethodPost, "/api/forum/posts", input, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) UpvotePost(ctx context.Context, id string) (int, error) {
	var resp struct {
		Upvotes int `json:"upvotes"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/forum/posts/"+url.PathEscape(id)+"/upvote", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Upvotes, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/forum/posts/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListComments(ctx context.Context, postID string) ([]models.ForumComment, error) {
	comments := []models.ForumComment{}
	if err := c.call(ctx, http.MethodGet, "/api/forum/posts/"+url.PathEscape(postID)+"/comments", nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) CreateComment(ctx context.Context, postID string, input models.NewComment) (*models.ForumComment, error) {
	var comment models.ForumComment
	if err := c.call(ctx, http.MethodPost, "/api/forum/posts/"+url.PathEscape(postID)+"/comments", input, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/forum/comments/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListResources(ctx context.Context, filter models.ResourceFilter) ([]models.LegalResource, error) {
	query := url.Values{}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	if filter.Search != "" {
		query.Set("q", filter.Search)
	}
	path := "/api/resources"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	resources := []models.LegalResource{}
	if err := c.call(ctx, http.MethodGet, path, nil, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

func (c *Client) ResourceCategories(ctx context.Context) ([]models.Option, error) {
	categories := []models.Option{}
	if err := c.call(ctx, http.MethodGet, "/api/resources/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) ListAllIncidents(ctx context.Context, status models.IncidentStatus) ([]models.Incident, error) {
	path := "/api/admin/incidents"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	incidents := []models.Incident{}
	if err := c.call(ctx, http.MethodGet, path, nil, &incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

func (c *Client) SetIncidentStatus(ctx context.Context, id string, status models.IncidentStatus) (*models.Incident, error) {
	var incident models.Incident
	body := map[string]models.IncidentStatus{"status": status}
	if err := c.call(ctx, http.MethodPut, "/api/admin/incidents/"+url.PathEscape(id)+"/status", body, &incident); err != nil {
		return nil, err
	}
	return &incident, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := c.call(ctx, http.MethodGet, "/api/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) SetUserRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	var user models.User
	body := map[string]models.Role{"role": role}
	if err := c.call(ctx, http.MethodPut, "/api/admin/users/"+url.PathEscape(id)+"/role", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) CreateResource(ctx context.Context, input models.ResourceInput) (*models.LegalResource, error) {
	var resource models.LegalResource
	if err := c.call(ctx, http.MethodPost, "/api/admin/resources", input, &resource); err != nil {
		return nil, err
	}
	return &resource, nil
}

func (c *Client) UpdateResource(ctx context.Context, id string, input models.ResourceInput) (*models.LegalResource, error) {
	var resource models.LegalResource
	if err := c.call(ctx, http.MethodPut, "/api/admin/resources/"+url.PathEscape(id), input, &resource); err != nil {
		return nil, err
	}
	return &resource, nil
}

func (c *Client) DeleteResource(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/admin/resources/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Upload(ctx context.Context, bucket, filename string, body io.Reader) (*models.UploadedAsset, error) {
	var asset models.UploadedAsset
	req := c.request(ctx).SetFileReader("file", filename, body)
	if err := c.send(req, http.MethodPost, "/api/media/uploads/"+url.PathEscape(bucket), &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// AssetURL turns a relative asset path returned by the backend into an absolute URL.
func (c *Client) AssetURL(path string) string {
	if path == "" {
		return ""
	}
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	return c.baseURL + path
}

