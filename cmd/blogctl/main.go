package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"goblog/internal/config"
	"goblog/internal/store"
)

const blogctlDoc = `Blog administration tool

Usage:
  blogctl users
  blogctl posts
  blogctl delete <post_id>...
  blogctl -h
Options:
  -h            Show this screen.

The database is taken from DATABASE_URL (default blog.db).`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(blogctlDoc)
		return
	}

	if err := config.LoadDotenv(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Can't open database: %s\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Can't open database: %s\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "-h":
		fmt.Println(blogctlDoc)
	case "users":
		users, err := st.ListUsers(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "SQL error: %s\n", err)
			os.Exit(1)
		}
		for _, u := range users {
			fmt.Printf("%d,%s,%s\n", u.ID, u.Username, u.Email)
		}
	case "posts":
		posts, err := st.ListPosts(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "SQL error: %s\n", err)
			os.Exit(1)
		}
		for _, p := range posts {
			fmt.Printf("%d,%s,%s,%s\n", p.ID, p.Author.Username, p.Title, p.DatePosted.Format("2006-01-02 15:04"))
		}
	case "delete":
		for _, arg := range os.Args[2:] {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid post ID: %s\n", arg)
				continue
			}
			if err := st.DeletePost(ctx, id); err != nil {
				fmt.Fprintf(os.Stderr, "SQL error: %s\n", err)
			} else {
				fmt.Printf("Deleted post: %d\n", id)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n%s\n", os.Args[1], blogctlDoc)
		os.Exit(1)
	}
}
