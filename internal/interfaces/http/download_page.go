package http

import "html/template"

type downloadView struct {
	InvoiceID string
}

// downloadPage fetches the PDF from the sibling /pdf route and saves it.
// The invoice id only appears inside JS and attribute contexts, where
// html/template escapes it.
var downloadPage = template.Must(template.New("download").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Downloading invoice</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: system-ui, -apple-system, sans-serif; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); min-height: 100vh; display: flex; align-items: center; justify-content: center; padding: 20px; }
.card { background: white; padding: 40px; border-radius: 20px; box-shadow: 0 20px 60px rgba(0,0,0,0.3); text-align: center; max-width: 500px; width: 100%; }
.spinner { border: 4px solid #f3f3f3; border-top: 4px solid #667eea; border-radius: 50%; width: 60px; height: 60px; animation: spin 1s linear infinite; margin: 0 auto 20px; }
@keyframes spin { 0% { transform: rotate(0deg); } 100% { transform: rotate(360deg); } }
h1 { color: #333; font-size: 24px; margin-bottom: 15px; }
p { color: #666; margin-bottom: 10px; line-height: 1.6; }
.success { color: #10b981; font-weight: 600; display: none; font-size: 18px; }
.error { color: #ef4444; display: none; }
.btn { display: none; margin-top: 20px; padding: 12px 24px; background: #667eea; color: white; border: 0; border-radius: 8px; font-weight: 500; cursor: pointer; }
</style>
</head>
<body>
<div class="card" data-invoice="{{.InvoiceID}}">
  <div class="spinner" id="spinner"></div>
  <h1 id="title">Generating Your Invoice PDF</h1>
  <p id="message">Please wait a moment while we prepare your document...</p>
  <p class="success" id="success">PDF Downloaded Successfully!</p>
  <p class="error" id="error">Failed to generate PDF. Please try again.</p>
  <button class="btn" id="retry" type="button">Try Again</button>
</div>
<script>
(function () {
  var invoiceId = {{.InvoiceID}};
  var el = function (id) { return document.getElementById(id); };

  function filenameFrom(res) {
    var cd = res.headers.get('Content-Disposition') || '';
    var m = /filename="?([^";]+)"?/.exec(cd);
    return m ? m[1] : 'invoice.pdf';
  }

  function reset() {
    el('spinner').style.display = 'block';
    el('title').textContent = 'Generating Your Invoice PDF';
    el('message').style.display = 'block';
    el('error').style.display = 'none';
    el('retry').style.display = 'none';
  }

  function fail(msg) {
    el('spinner').style.display = 'none';
    el('title').textContent = 'Download Failed';
    el('message').style.display = 'none';
    el('error').textContent = msg;
    el('error').style.display = 'block';
    el('retry').style.display = 'inline-block';
  }

  async function run() {
    reset();
    try {
      var res = await fetch('pdf', { credentials: 'same-origin', cache: 'no-store' });
      if (!res.ok) {
        var body = {};
        try { body = await res.json(); } catch (e) {}
        throw new Error(body.error || ('HTTP ' + res.status));
      }
      var blob = await res.blob();
      var url = URL.createObjectURL(blob);
      var a = document.createElement('a');
      a.href = url;
      a.download = filenameFrom(res);
      document.body.appendChild(a);
      a.click();
      a.remove();
      setTimeout(function () { URL.revokeObjectURL(url); }, 1000);
      el('spinner').style.display = 'none';
      el('title').textContent = 'Download Complete';
      el('message').style.display = 'none';
      el('success').style.display = 'block';
    } catch (err) {
      console.error('PDF download failed for invoice', invoiceId, err);
      fail('Failed to generate PDF: ' + err.message);
    }
  }

  el('retry').addEventListener('click', run);
  window.addEventListener('load', run);
})();
</script>
</body>
</html>
`))
