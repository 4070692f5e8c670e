package server

import "net/http"

// requestJar backs the session.Jar capability with one request/response
// cycle. Cookies written during the request are readable again within it.
type requestJar struct {
	r       *http.Request
	w       http.ResponseWriter
	written map[string]*http.Cookie
}

func newRequestJar(w http.ResponseWriter, r *http.Request) *requestJar {
	return &requestJar{
		r:       r,
		w:       w,
		written: make(map[string]*http.Cookie),
	}
}

func (j *requestJar) Get(name string) (string, bool) {
	if c, ok := j.written[name]; ok {
		if c.MaxAge < 0 {
			return "", false
		}
		return c.Value, true
	}

	c, err := j.r.Cookie(name)
	if err != nil {
		return "", false
	}

	return c.Value, true
}

func (j *requestJar) Set(cookie *http.Cookie) {
	j.written[cookie.Name] = cookie
	http.SetCookie(j.w, cookie)
}
