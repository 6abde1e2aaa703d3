// Package taginput hosts tag input fields inside a Go program, without the
// HTTP server.
//
// A Client owns the record storage (Valkey, Redis or PostgreSQL) and the
// record schema. Each field is bound to a topic record type and stores its
// tags either as related records or as one separator-joined attribute,
// whichever the topic type declares under the field's name.
//
//	client, _ := taginput.New(ctx,
//	    taginput.WithValkey("localhost:6379", ""),
//	    taginput.WithRecordType("post", []string{"Title"}, map[string]string{"tags": "tag"}),
//	    taginput.WithRecordType("tag", []string{"Title"}, nil),
//	)
//	defer client.Close()
//
//	tags, _ := client.Field("tags", "post")
//	suggestions, _ := tags.Suggest(ctx, "go")
//	post, _ := tags.Submit(ctx, "", "go chi valkey")
package taginput
