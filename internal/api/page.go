package api

import "net/http"

func servePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(pageHTML))
}

const pageHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>hookpad</title>
<style>
body { font-family: system-ui, sans-serif; margin: 16px; max-width: 420px; }
label { display: block; margin-top: 10px; font-size: 13px; }
input, select, textarea { width: 100%; box-sizing: border-box; }
.row { display: flex; gap: 8px; }
.row > div { flex: 1; }
#preview { margin-top: 12px; padding: 8px; background: #f3f3f3; font-family: monospace; }
#status { margin-top: 8px; min-height: 1.2em; color: #555; }
</style>
</head>
<body>
<label>Webhook <select id="webhookSelect"></select></label>
<label>Message <textarea id="text" rows="3"></textarea></label>
<div class="row">
  <div><label>Minutes <input id="min" type="number" min="0" max="999" value="0"></label></div>
  <div><label>Seconds <input id="sec" type="number" min="0" max="59" value="0"></label></div>
</div>
<label><input id="useTs" type="checkbox" style="width:auto"> Append relative timestamp</label>
<div id="preview">—</div>
<button id="send">Send</button>
<div id="status"></div>
<script>
const el = (id) => document.getElementById(id);
const state = () => ({
  text: el("text").value,
  minutes: el("min").value,
  seconds: el("sec").value,
  include_timestamp: el("useTs").checked,
});
const api = (method, path, body) =>
  fetch(path, { method, headers: { "Content-Type": "application/json" }, body: body && JSON.stringify(body) });

function renderSelection(sel) {
  const s = el("webhookSelect");
  s.innerHTML = "";
  if (sel.disabled) {
    s.appendChild(new Option("No webhooks (open Settings)", ""));
    s.disabled = true;
    return;
  }
  s.disabled = false;
  for (const o of sel.options) s.appendChild(new Option(o.label, o.id));
  s.value = sel.selected_id;
}

function renderSurface(snap) {
  el("status").textContent = snap.status;
  el("send").disabled = snap.busy;
}

async function compile() {
  const res = await (await api("POST", "/api/compile", state())).json();
  el("min").value = res.state.minutes;
  el("sec").value = res.state.seconds;
  el("preview").textContent = res.result.preview;
}

["text", "min", "sec"].forEach((id) => el(id).addEventListener("input", compile));
el("useTs").addEventListener("change", compile);
el("webhookSelect").addEventListener("change", () => api("PUT", "/api/selection", { id: el("webhookSelect").value }));
el("send").addEventListener("click", async () => {
  el("send").disabled = true;
  const out = await (await api("POST", "/api/send", state())).json();
  el("status").textContent = out.status;
});

const events = new EventSource("/api/events");
events.addEventListener("config", (e) => renderSelection(JSON.parse(e.data)));
events.addEventListener("status", (e) => renderSurface(JSON.parse(e.data)));

api("GET", "/api/state").then((r) => r.json()).then((s) => {
  renderSelection(s.selection);
  renderSurface(s.surface);
  compile();
});
</script>
</body>
</html>
`
