// Package webroot implements a minimal HTTP/1.1 static file server core.
//
// The server accepts only GET requests with the exact version token HTTP/1.1
// and serves files from a single web root. Routing is fixed: a forbidden path,
// a redirection table, a synthetic-error path and a default document are checked
// before any file lookup.
//
// # Key Components
//
//   - ValidateRequestLine: checks a raw request line against the GET-only grammar
//   - Dispatcher: resolves a resource to a Response using the routing rules
//   - ContentTypes: immutable extension to MIME type table with a fallback
//   - Redirects: immutable source to destination path table
//   - FileStore: interface for the file access capability (see filesystem)
//   - AccessRepo: interface for access-log persistence (see database)
//
// The session package frames requests off a connection and drives a Dispatcher,
// and the server package accepts connections and runs one session per client.
//
// # Example Usage
//
//	dispatcher, err := webroot.NewDispatcher(store, webroot.SiteConfig{
//	    DefaultDocument: "index.html",
//	    ForbiddenPath:   "/forbidden",
//	    ErrorPath:       "/error",
//	    Redirects:       webroot.NewRedirects(map[string]string{"/moved": "/index.html"}),
//	    ContentTypes:    webroot.DefaultContentTypes(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := dispatcher.Dispatch(ctx, "/index.html")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_, err = resp.WriteTo(conn)
package webroot
