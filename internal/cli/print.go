package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"safeguard-go/internal/models"
	"safeguard-go/internal/sos"

	"golang.org/x/term"
)

const defaultWidth = 100

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 20 {
			return width
		}
	}
	return defaultWidth
}

func truncate(text string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if width <= 1 || len(runes) <= width {
		return text
	}
	return string(runes[:width-1]) + "…"
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func deref(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}

func when(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func printUser(w io.Writer, user *models.User, link func(string) string) {
	fmt.Fprintf(w, "id:       %s\n", user.ID)
	fmt.Fprintf(w, "email:    %s\n", user.Email)
	fmt.Fprintf(w, "name:     %s\n", deref(user.FullName, "-"))
	fmt.Fprintf(w, "phone:    %s\n", deref(user.PhoneNumber, "-"))
	fmt.Fprintf(w, "role:     %s\n", user.Role)
	picture := "-"
	if user.ProfilePicture != nil && *user.ProfilePicture != "" {
		picture = link(*user.ProfilePicture)
	}
	fmt.Fprintf(w, "picture:  %s\n", picture)
	if len(user.EmergencyContacts) == 0 {
		fmt.Fprintln(w, "contacts: none")
		return
	}
	fmt.Fprintln(w, "contacts:")
	for i, c := range user.EmergencyContacts {
		line := fmt.Sprintf("  %d. %s <%s>", i+1, c.Name, c.Email)
		if c.Phone != "" {
			line += " " + c.Phone
		}
		fmt.Fprintln(w, line)
	}
}

func printStatus(w io.Writer, status sos.Status) {
	fmt.Fprintf(w, "SOS: %s\n", status.State)
	if status.Alert == nil {
		return
	}
	location := deref(status.Alert.LocationName, "")
	if status.Place != nil {
		location = status.Place.Name
		if !status.Place.Resolved() {
			location += " (place name unavailable)"
		}
	}
	if location == "" {
		location = fmt.Sprintf("%v, %v", status.Alert.Latitude, status.Alert.Longitude)
	}
	fmt.Fprintf(w, "alert:     %s\n", status.Alert.ID)
	fmt.Fprintf(w, "location:  %s\n", location)
	fmt.Fprintf(w, "since:     %s\n", when(status.Alert.ActivatedAt))
	fmt.Fprintf(w, "contacts:  %d notified", status.Notified)
	if status.Failed > 0 {
		fmt.Fprintf(w, ", %d failed", status.Failed)
	}
	fmt.Fprintln(w)
}

func printIncidents(w io.Writer, incidents []models.Incident) {
	if len(incidents) == 0 {
		fmt.Fprintln(w, "No incidents.")
		return
	}
	width := terminalWidth(w)
	tw := table(w)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tREPORTED\tTITLE\tEVIDENCE")
	for _, i := range incidents {
		title := i.Title
		if i.IsAnonymous {
			title += " (anonymous)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", i.ID, i.IncidentType, i.Status, when(i.CreatedAt), truncate(title, width/3), len(i.EvidenceFiles))
	}
	_ = tw.Flush()
}

func printPosts(w io.Writer, posts []models.ForumPost) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts yet.")
		return
	}
	width := terminalWidth(w)
	for _, p := range posts {
		fmt.Fprintf(w, "[%s] %s  (+%d)\n", p.ID, p.Title, p.Upvotes)
		fmt.Fprintf(w, "    by %s on %s\n", deref(p.AuthorName, "Anonymous"), when(p.CreatedAt))
		fmt.Fprintf(w, "    %s\n", truncate(p.Content, width-4))
	}
}

func printComments(w io.Writer, comments []models.ForumComment) {
	if len(comments) == 0 {
		fmt.Fprintln(w, "No comments.")
		return
	}
	for _, c := range comments {
		fmt.Fprintf(w, "[%s] %s (%s): %s\n", c.ID, deref(c.AuthorName, "Anonymous"), when(c.CreatedAt), c.Content)
	}
}

func printResources(w io.Writer, resources []models.LegalResource) {
	if len(resources) == 0 {
		fmt.Fprintln(w, "No resources found.")
		return
	}
	category := ""
	for _, r := range resources {
		if r.Category != category {
			category = r.Category
			fmt.Fprintf(w, "== %s ==\n", categoryLabel(category))
		}
		fmt.Fprintf(w, "* %s\n  %s\n", r.Title, r.Content)
	}
}

func categoryLabel(value string) string {
	for _, opt := range models.ResourceCategories {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

func printOptions(w io.Writer, options []models.Option) {
	tw := table(w)
	for _, o := range options {
		fmt.Fprintf(tw, "%s\t%s\n", o.Value, o.Label)
	}
	_ = tw.Flush()
}

func printUsers(w io.Writer, users []models.User) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tJOINED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Email, deref(u.FullName, "-"), u.Role, when(u.CreatedAt))
	}
	_ = tw.Flush()
}

func printAdminResources(w io.Writer, resources []models.LegalResource) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tCATEGORY\tORDER\tTITLE")
	for _, r := range resources {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.ID, r.Category, r.Order, r.Title)
	}
	_ = tw.Flush()
}
