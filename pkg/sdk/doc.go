// Package blogdex embeds the blogdex post pipeline and semantic search in a
// Go program without running the HTTP server.
//
// Posts are stored in PostgreSQL (with pgvector) or in memory. Saving a post
// derives its metadata synchronously; the embedding and rendered HTML are
// produced by a background worker pool owned by the client.
//
//	client, _ := blogdex.New(ctx,
//	    blogdex.WithPostgres("postgres://localhost/blog"),
//	    blogdex.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	p, _ := client.Posts().Create(ctx, blogdex.PostInput{Content: markdown})
//	res, _ := client.Search().Query(ctx, "vector databases", 1, 10)
package blogdex
