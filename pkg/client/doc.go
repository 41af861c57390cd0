// Package client is the Go SDK for the neurodir membership directory API.
//
// It covers the public read surface (search, profile detail, aggregates,
// recommendations) and the authenticated account surface (signup, login,
// profile management, claiming).
//
// # Searching the directory
//
//	c, _ := client.New("https://api.neurodir.org")
//	result, err := c.SearchProfiles(ctx, "cortex fmri", client.SearchOptions{Page: 1})
//	for _, p := range result.Profiles {
//	    fmt.Println(p.Name, p.Institution)
//	}
//
// # Authenticated calls
//
// Login stores the session token on the client, so subsequent calls are
// authenticated automatically:
//
//	login, err := c.Login(ctx, "amara@neuro.ku.ac.ke", "secret")
//	me, err := c.Me(ctx)
//
// A pre-obtained token can be attached instead with WithBearerToken.
//
// # Submitting a recommendation
//
// Recommendations may be submitted anonymously; when the client holds a
// session the server records the submitter:
//
//	rec, err := c.CreateRecommendation(ctx, profileID, client.RecommendationRequest{
//	    ReviewerName: "Jonas Keller",
//	    Comment:      "Excellent collaborator.",
//	})
package client
