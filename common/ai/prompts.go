package ai

import "fmt"

// ListingPrompt asks the model for listing page selectors. The response
// keys match scout.listingAnswer.
const ListingPrompt = `You are an expert web scraping assistant. Analyze the provided HTML of a company's job listings page.
Your task is to identify the CSS selectors for the following elements:

1. A container for each individual job posting (key: "job_item").
2. The job title within that job container (key: "title").
3. The job location within that job container (key: "location").
4. A clickable link/button within each job item that leads to the full job details page (key: "job_link").
5. The job ID or unique identifier, often found in href attributes, data attributes, or as text (key: "job_id").
6. A brief job description or summary text, if visible on the listing page (key: "description").
7. The link or button to click to go to the NEXT page of results (key: "pagination_next").

IMPORTANT NOTES:
- For "job_link": This should be a selector for a clickable element (usually <a> tag) that opens the full job details.
- For "job_id": Look for unique identifiers in href URLs (like /job/12345), data-id attributes, or ID text.
- For "description": Look for preview text, summary, or snippet content visible on the listing page.
- If any element is not found or doesn't exist, set its value to null.

You MUST return your response as a single, raw JSON object, and nothing else.
Do not include markdown formatting like ` + "```json" + ` or any explanations.
Your response should look EXACTLY like this example:
{
  "job_item": "div.job-card",
  "title": "h2.job-title",
  "location": "span.location",
  "job_link": "a.job-link",
  "job_id": "a.job-link",
  "description": "div.job-summary",
  "pagination_next": "a.next-page"
}`

// DetailPrompt asks the model for detail page selectors. The response keys
// match scout.detailAnswer.
const DetailPrompt = `You are an expert web scraping assistant. Analyze the provided HTML of a company's individual job detail page.
Your task is to identify the CSS selectors for the following elements on the job detail page:

1. The full job description content (key: "full_description").
2. Job requirements or qualifications section (key: "requirements").
3. Job type (full-time, part-time, contract, etc.) (key: "job_type").
4. Experience level required (entry, mid, senior, etc.) (key: "experience_level").
5. Salary information, if available (key: "salary").
6. Skills or technologies mentioned (key: "skills").

IMPORTANT NOTES:
- Focus on finding the main content areas that contain job information.
- If any element is not found or doesn't exist, set its value to null.
- Prioritize the most comprehensive selectors that capture the full content.

You MUST return your response as a single, raw JSON object, and nothing else.
Do not include markdown formatting like ` + "```json" + ` or any explanations.
Your response should look EXACTLY like this example:
{
  "full_description": "div.job-description",
  "requirements": "div.requirements",
  "job_type": "span.job-type",
  "experience_level": "span.experience",
  "salary": "div.salary-info",
  "skills": "div.skills"
}`

// CorrectivePrompt wraps a base prompt after a malformed answer, quoting
// the parse failure back to the model.
func CorrectivePrompt(base string, previousAnswer string, parseErr error) string {
	return fmt.Sprintf(`Your previous answer could not be used.

Previous answer:
%s

Problem: %v

Answer again, fixing the problem. %s`, previousAnswer, parseErr, base)
}
