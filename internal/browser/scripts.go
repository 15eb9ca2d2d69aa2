package browser

import (
	"encoding/json"
	"fmt"
)

// pasteImageScript draws a 1x1 transparent png and dispatches it as a paste
// event on the textarea. Automating the native file upload is unreliable on
// the chat page, pasting is handled by the page itself. toBlob is
// asynchronous so the image arrives shortly after the script returned.
const pasteImageScript = `(() => {
	const textarea = document.querySelector('textarea');
	if (!textarea) {
		return false;
	}
	const canvas = document.createElement('canvas');
	canvas.width = 1;
	canvas.height = 1;
	const ctx = canvas.getContext('2d');
	ctx.fillStyle = 'rgba(0,0,0,0)';
	ctx.fillRect(0, 0, 1, 1);
	canvas.toBlob((blob) => {
		const file = new File([blob], 'image.png', { type: 'image/png' });
		const dataTransfer = new DataTransfer();
		dataTransfer.items.add(file);
		textarea.dispatchEvent(new ClipboardEvent('paste', {
			clipboardData: dataTransfer,
			bubbles: true,
			cancelable: true
		}));
	});
	return true;
})()`

// The value tracker has to be reset, otherwise react ignores the input
// event because it believes the value did not change.
const setPromptScriptFormat = `((promptText) => {
	const textarea = document.querySelector('textarea');
	if (!textarea) {
		return false;
	}
	const previousValue = textarea.value;
	textarea.value = promptText;
	if (textarea._valueTracker) {
		textarea._valueTracker.setValue(previousValue);
	}
	textarea.dispatchEvent(new Event('input', { bubbles: true }));
	textarea.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})(%s)`

const responseTextsScriptFormat = `Array.from(document.querySelectorAll(%s), (e) => e.innerText)`

// setPromptScript returns a script that sets the textarea's value to prompt.
func setPromptScript(prompt string) (string, error) {
	arg, err := jsString(prompt)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(setPromptScriptFormat, arg), nil
}

// responseTextsScript returns a script evaluating to the innerText of all
// elements matching selector.
func responseTextsScript(selector string) (string, error) {
	arg, err := jsString(selector)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(responseTextsScriptFormat, arg), nil
}

// jsString quotes s as a javascript string literal.
func jsString(s string) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
