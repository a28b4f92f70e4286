package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ayia-hosni/study-sync-backend/internal/dispatch"
	"github.com/ayia-hosni/study-sync-backend/internal/model"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printAccepted(kind dispatch.Kind) {
	if jsonOutput {
		printJSON(map[string]string{"status": "accepted", "kind": string(kind)})
		return
	}
	fmt.Printf("Accepted %s\n", kind)
}

func printPostTable(p model.PostSnapshot) { writePostTable(os.Stdout, p) }

func writePostTable(w io.Writer, p model.PostSnapshot) {
	if p.IsEmpty() {
		fmt.Fprintln(w, "Post not found")
		return
	}
	fmt.Fprintf(w, "ID:          %d\n", p.ID)
	fmt.Fprintf(w, "Title:       %s\n", p.Title)
	fmt.Fprintf(w, "Category:    %s\n", p.Category)
	fmt.Fprintf(w, "Author:      %s (%d)\n", p.AuthorName, p.AuthorID)
	fmt.Fprintf(w, "Published:   %t\n", p.IsPublished)
	if p.CreatedAt != "" {
		fmt.Fprintf(w, "Created At:  %s\n", p.CreatedAt)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(w, "Tags:        %s\n", strings.Join(p.Tags, ", "))
	}
	fmt.Fprintf(w, "Likes:       %d\n", p.LikeCount)
	fmt.Fprintf(w, "Comments:    %d\n", p.CommentCount)
	fmt.Fprintf(w, "Views:       %d\n", p.ViewCount)
	if p.Content != "" {
		fmt.Fprintf(w, "Content:     %s\n", p.Content)
	}
}

func printPostList(posts []model.PostSnapshot, requested int) {
	writePostList(os.Stdout, posts, requested)
}

func writePostList(out io.Writer, posts []model.PostSnapshot, requested int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tLIKES\tCOMMENTS\tVIEWS\tTITLE")
	for _, p := range posts {
		title := p.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%s\n",
			p.ID,
			p.Category,
			p.LikeCount,
			p.CommentCount,
			p.ViewCount,
			title,
		)
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d posts (%d requested)\n", len(posts), requested)
}

func printUserTable(u model.UserProfileSnapshot) { writeUserTable(os.Stdout, u) }

func writeUserTable(w io.Writer, u model.UserProfileSnapshot) {
	if u.ID == 0 {
		fmt.Fprintln(w, "User not found")
		return
	}
	fmt.Fprintf(w, "ID:          %d\n", u.ID)
	fmt.Fprintf(w, "Name:        %s\n", u.Name)
	fmt.Fprintf(w, "Email:       %s\n", u.Email)
	fmt.Fprintf(w, "Language:    %s\n", u.PreferredLanguage)
	fmt.Fprintf(w, "Timezone:    %s\n", u.Timezone)
	if len(u.Interests) > 0 {
		fmt.Fprintf(w, "Interests:   %s\n", strings.Join(u.Interests, ", "))
	}
	if len(u.FollowedCategories) > 0 {
		fmt.Fprintf(w, "Categories:  %s\n", strings.Join(u.FollowedCategories, ", "))
	}
	if len(u.FollowedUserIDs) > 0 {
		ids := make([]string, len(u.FollowedUserIDs))
		for i, id := range u.FollowedUserIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		fmt.Fprintf(w, "Following:   %s\n", strings.Join(ids, ", "))
	}
}
