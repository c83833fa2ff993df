package render

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"

	"github.com/oxygene76/exosky/internal/types"
)

// Navigation adds the planet selector and the image export controls to a
// page served over HTTP. Pages written to disk go without it.
type Navigation struct {
	// Planets are the names offered by the selector, in display order
	Planets []string
	// SkyPath prefixes the escaped planet name to form a planet's page URL
	SkyPath string
	// ExportURL is the export endpoint of the current planet. The preview
	// is requested from the same URL with preview=true.
	ExportURL string
}

type planetOption struct {
	Name     string
	URL      string
	Selected bool
}

type headerData struct {
	Planet     types.Planet
	Stars      int
	Limit      float64
	Options    []planetOption
	ExportURL  string
	PreviewURL string
}

var headerTemplate = template.Must(template.New("header").Parse(`
<div id="exosky-header" style="background:#000;color:#fff;font-family:sans-serif;padding:12px 20px;display:flex;flex-wrap:wrap;gap:32px;align-items:flex-start">
  {{- if .Options}}
  <div>
    <label for="exosky-planet">🔭 Planet</label><br>
    <select id="exosky-planet" onchange="window.location.href = this.value">
      {{- range .Options}}
      <option value="{{.URL}}"{{if .Selected}} selected{{end}}>{{.Name}}</option>
      {{- end}}
    </select>
  </div>
  {{- end}}
  <div id="exosky-planet-info">
    <strong>📌 {{.Planet.Name}}</strong><br>
    Distance: {{printf "%.2f" .Planet.Distance}} pc<br>
    RA: {{printf "%.2f" .Planet.RA}}°&nbsp; Dec: {{printf "%.2f" .Planet.Dec}}°<br>
    {{.Stars}} stars brighter than magnitude {{.Limit}}
  </div>
  {{- if .ExportURL}}
  <div id="exosky-export">
    <button type="button" id="exosky-generate">📷 Generate image</button>
    <form method="post" action="{{.ExportURL}}" style="display:inline">
      <button type="submit">Download image</button>
    </form>
    <div id="exosky-status"></div>
    <img id="exosky-preview" alt="Preview of the generated image" style="display:none;max-width:600px;margin-top:8px">
  </div>
  <script type="text/javascript">
  document.getElementById("exosky-generate").addEventListener("click", function () {
    var status = document.getElementById("exosky-status");
    status.textContent = "Rendering...";
    fetch({{.PreviewURL}}, {method: "POST"}).then(function (resp) {
      if (!resp.ok) {
        return resp.json().then(function (body) { throw new Error(body.error); });
      }
      return resp.blob();
    }).then(function (blob) {
      var img = document.getElementById("exosky-preview");
      img.src = URL.createObjectURL(blob);
      img.style.display = "block";
      status.textContent = "";
    }).catch(function (err) {
      status.textContent = "Export failed: " + err.message;
    });
  });
  </script>
  {{- end}}
</div>
`))

func renderHeader(view *types.SkyView, nav *Navigation) ([]byte, error) {
	data := headerData{
		Planet: view.Planet,
		Stars:  len(view.Stars),
		Limit:  view.MagnitudeLimit,
	}

	if nav != nil {
		data.Options = make([]planetOption, len(nav.Planets))
		for i, name := range nav.Planets {
			data.Options[i] = planetOption{
				Name:     name,
				URL:      nav.SkyPath + url.PathEscape(name),
				Selected: name == view.Planet.Name,
			}
		}

		if nav.ExportURL != "" {
			data.ExportURL = nav.ExportURL
			data.PreviewURL = withQuery(nav.ExportURL, "preview", "true")
		}
	}

	var buf bytes.Buffer
	if err := headerTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render header: %w", err)
	}
	return buf.Bytes(), nil
}

// withQuery adds key=value to the query of a relative or absolute URL
func withQuery(raw, key, value string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
