package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
)

type fakeMovie struct {
	ID, Title, Year, Genre, Plot, Director, Actors, Runtime string
}

var movies = []fakeMovie{
	{"tt0848228", "The Avengers", "2012", "Action, Sci-Fi", "Earth's mightiest heroes must come together to stop an alien invasion.", "Joss Whedon", "Robert Downey Jr., Chris Evans", "143 min"},
	{"tt1375666", "Inception", "2010", "Action, Adventure, Sci-Fi", "A thief who steals corporate secrets through dream-sharing is given one last job.", "Christopher Nolan", "Leonardo DiCaprio, Joseph Gordon-Levitt", "148 min"},
	{"tt0816692", "Interstellar", "2014", "Adventure, Drama, Sci-Fi", "A team of explorers travel through a wormhole in space.", "Christopher Nolan", "Matthew McConaughey, Anne Hathaway", "169 min"},
	{"tt7286456", "Joker", "2019", "Crime, Drama, Thriller", "A mentally troubled comedian embarks on a downward spiral.", "Todd Phillips", "Joaquin Phoenix, Robert De Niro", "122 min"},
	{"tt1160419", "Dune", "2021", "Action, Adventure, Drama", "A noble family becomes embroiled in a war for control of the galaxy's most valuable asset.", "Denis Villeneuve", "Timothée Chalamet, Rebecca Ferguson", "155 min"},
	{"tt0076759", "Star Wars", "1977", "Action, Adventure, Fantasy", "Luke Skywalker joins forces with a Jedi Knight to save the galaxy.", "George Lucas", "Mark Hamill, Harrison Ford", "121 min"},
	{"tt0314331", "Love Actually", "2003", "Comedy, Drama, Romance", "Follows the lives of eight very different couples in London.", "Richard Curtis", "Hugh Grant, Martine McCutcheon", "135 min"},
	{"tt0120815", "Saving Private Ryan", "1998", "Drama, War", "Soldiers go behind enemy lines to retrieve a paratrooper.", "Steven Spielberg", "Tom Hanks, Matt Damon", "169 min"},
	{"tt0097576", "Night of the Living Dead", "1968", "Horror", "A group of survivors barricade themselves in a farmhouse.", "George A. Romero", "Duane Jones, Judith O'Dea", "96 min"},
	{"tt0145487", "World Trade Center", "2006", "Drama, History, Thriller", "Two police officers are trapped under the rubble.", "Oliver Stone", "Nicolas Cage, Michael Peña", "129 min"},
}

// Titles missing here get an empty result.
var trailers = map[string]string{
	"The Avengers": "eOrNdBpGMv8",
	"Inception":    "YoHD9XEInc0",
	"Interstellar": "zSWdZVtXT7E",
	"Joker":        "zAGVQLHvwOY",
	"Dune":         "n9xhJrPXop4",
	"Star Wars":    "vZ734NWnAHA",
}

func main() {
	http.HandleFunc("/omdb/", omdbHandler)
	http.HandleFunc("/youtube/v3/search", youtubeHandler)

	fmt.Println("Fake providers starting on :8089")
	fmt.Println("  metadata.omdb.base_url:    http://localhost:8089/omdb/")
	fmt.Println("  trailers.youtube.base_url: http://localhost:8089/youtube/v3/search")
	log.Fatal(http.ListenAndServe(":8089", nil))
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(payload)
}

func omdbHandler(w http.ResponseWriter, r *http.Request) {
	log.Printf("Received request URL: %s", r.URL.String())
	query := r.URL.Query()

	if query.Get("apikey") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(w, map[string]string{"Response": "False", "Error": "No API key provided."})
		return
	}

	if id := query.Get("i"); id != "" {
		for _, m := range movies {
			if m.ID == id {
				plot := m.Plot
				if query.Get("plot") == "full" {
					plot += " " + m.Plot
				}
				writeJSON(w, map[string]string{
					"Title": m.Title, "Year": m.Year, "Genre": m.Genre, "Plot": plot,
					"Director": m.Director, "Actors": m.Actors, "Runtime": m.Runtime,
					"imdbID": m.ID, "imdbRating": fmt.Sprintf("%.1f", 6+rand.Float64()*3),
					"Poster": "N/A", "Language": "English", "Country": "United States",
					"Response": "True",
				})
				return
			}
		}
		writeJSON(w, map[string]string{"Response": "False", "Error": "Incorrect IMDb ID."})
		return
	}

	term := strings.ToLower(query.Get("s"))
	var hits []map[string]string
	for _, m := range movies {
		if strings.Contains(strings.ToLower(m.Title), term) || strings.Contains(strings.ToLower(m.Genre), term) {
			hits = append(hits, map[string]string{"Title": m.Title, "Year": m.Year, "imdbID": m.ID, "Type": "movie", "Poster": "N/A"})
		}
	}
	if term == "" || len(hits) == 0 {
		writeJSON(w, map[string]string{"Response": "False", "Error": "Movie not found!"})
		return
	}
	writeJSON(w, map[string]interface{}{"Search": hits, "totalResults": fmt.Sprint(len(hits)), "Response": "True"})
}

func youtubeHandler(w http.ResponseWriter, r *http.Request) {
	log.Printf("Received request URL: %s", r.URL.String())
	q := r.URL.Query().Get("q")

	type item struct {
		ID struct {
			Kind    string `json:"kind"`
			VideoID string `json:"videoId"`
		} `json:"id"`
	}
	resp := struct {
		Items []item `json:"items"`
	}{Items: []item{}}

	for title, videoID := range trailers {
		if strings.HasPrefix(q, title+" ") {
			var it item
			it.ID.Kind = "youtube#video"
			it.ID.VideoID = videoID
			resp.Items = append(resp.Items, it)
			break
		}
	}
	writeJSON(w, resp)
}
